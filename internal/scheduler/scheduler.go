package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// digestTimeout bounds one digest run
const digestTimeout = 5 * time.Minute

// DigestSender sends the staff digest once
type DigestSender interface {
	Send(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs the weekly digest on a cron schedule
type Scheduler struct {
	scheduler *gocron.Scheduler
	digest    DigestSender
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a scheduler evaluating cron expressions in loc
func New(digest DigestSender, loc *time.Location, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		digest:    digest,
		logger:    logger.With("component", "scheduler"),
		now:       time.Now,
	}
}

// Start schedules the digest and begins running jobs in the background.
// An empty expression disables the digest.
func (s *Scheduler) Start(digestCron string) error {
	if digestCron == "" {
		s.logger.Info("digest schedule disabled")
		return nil
	}

	if _, err := s.scheduler.Cron(digestCron).SingletonMode().Do(s.SendDigest); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", digestCron, err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "digest_cron", digestCron)
	return nil
}

// Stop terminates all scheduled jobs
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Jobs returns the number of scheduled jobs
func (s *Scheduler) Jobs() int {
	return s.scheduler.Len()
}

// SendDigest runs one digest and logs the outcome
func (s *Scheduler) SendDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()

	sent, err := s.digest.Send(ctx, s.now())
	if err != nil {
		s.logger.Error("digest run failed", "sent", sent, "error", err)
		return
	}
	s.logger.Info("digest run finished", "sent", sent)
}
