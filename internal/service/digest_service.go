package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	texttemplate "text/template"
	"time"

	"gamedash/internal/report"
)

// digestTopPoints is how many knowledge points the digest lists
const digestTopPoints = 5

// Reporter is the part of the report service the digest reads
type Reporter interface {
	GlobalStats(ctx context.Context, now time.Time, filter report.GlobalFilter) (*report.GlobalStats, error)
	AnalyzeErrors(ctx context.Context, now time.Time, filter report.ErrorFilter) (*report.ErrorAnalysis, error)
}

// Digest is the weekly summary mailed to staff
type Digest struct {
	PeriodStart        time.Time
	PeriodEnd          time.Time
	Stats              *report.GlobalStats
	TopKnowledgePoints []report.KnowledgePointConcentration
	DashboardURL       string
}

// DigestService builds and mails the weekly digest
type DigestService struct {
	reports    Reporter
	users      UserStore
	mailer     Mailer
	appBaseURL string
	logger     *slog.Logger
}

// NewDigestService creates a new digest service
func NewDigestService(reports Reporter, users UserStore, mailer Mailer, appBaseURL string, logger *slog.Logger) *DigestService {
	return &DigestService{
		reports:    reports,
		users:      users,
		mailer:     mailer,
		appBaseURL: appBaseURL,
		logger:     logger.With("component", "digest"),
	}
}

// Build collects the last seven days of activity ending at now
func (s *DigestService) Build(ctx context.Context, now time.Time) (*Digest, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := midnight.AddDate(0, 0, -6)

	stats, err := s.reports.GlobalStats(ctx, now, report.GlobalFilter{StartDate: &start, EndDate: &now})
	if err != nil {
		return nil, fmt.Errorf("failed to build global stats: %w", err)
	}
	analysis, err := s.reports.AnalyzeErrors(ctx, now, report.ErrorFilter{StartDate: &start, EndDate: &now})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze errors: %w", err)
	}

	digest := &Digest{
		PeriodStart:  start,
		PeriodEnd:    now,
		Stats:        stats,
		DashboardURL: s.appBaseURL,
	}
	if analysis.ErrorConcentration != nil {
		points := analysis.ErrorConcentration.KnowledgePoints
		digest.TopKnowledgePoints = points[:min(digestTopPoints, len(points))]
	}
	return digest, nil
}

// Send builds the digest and mails it to every admin and teacher. It returns
// the number of emails sent; failed recipients are joined into the error.
func (s *DigestService) Send(ctx context.Context, now time.Time) (int, error) {
	if !s.mailer.IsEnabled() {
		s.logger.Info("digest skipped: email disabled")
		return 0, nil
	}

	digest, err := s.Build(ctx, now)
	if err != nil {
		return 0, err
	}
	subject, html, text, err := digest.Render()
	if err != nil {
		return 0, err
	}

	users, err := s.users.ListByRole(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to list recipients: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for i := range users {
		u := &users[i]
		if !u.IsStaff() || u.Email == "" {
			continue
		}
		if err := s.mailer.Send(ctx, u.Email, subject, html, text); err != nil {
			s.logger.Error("digest send failed", "user_id", u.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		sent++
	}

	s.logger.Info("digest sent", "recipients", sent, "failures", len(errs))
	return sent, errors.Join(errs...)
}

var digestFuncs = map[string]any{
	"date": func(t time.Time) string { return t.Format(time.DateOnly) },
	"inc":  func(i int) int { return i + 1 },
}

var digestHTML = htmltemplate.Must(htmltemplate.New("digest").Funcs(digestFuncs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
<h1>Weekly game report</h1>
<p>{{date .PeriodStart}} to {{date .PeriodEnd}}</p>
<p><strong>{{.Stats.TotalPlayCount}}</strong> plays by <strong>{{.Stats.TotalStudents}}</strong> students.</p>
<table cellpadding="6" style="border-collapse: collapse;">
<tr><th align="left">Game</th><th>Plays</th><th>Average</th><th>Completion</th></tr>
{{range .Stats.GameTypeStats}}<tr><td>{{.GameName}}</td><td>{{.PlayCount}}</td><td>{{printf "%.1f" .AvgScore}}</td><td>{{printf "%.0f" .CompletionRate}}%</td></tr>
{{end}}</table>
{{if .TopKnowledgePoints}}<h2>Most missed knowledge points</h2>
<ol>
{{range .TopKnowledgePoints}}<li>{{.KnowledgePoint}}: {{.ErrorCount}} errors across {{.StudentCount}} students ({{.DifficultyLevel}})</li>
{{end}}</ol>{{end}}
<p><a href="{{.DashboardURL}}">Open the dashboard</a></p>
</body>
</html>
`))

var digestText = texttemplate.Must(texttemplate.New("digest").Funcs(digestFuncs).Parse(`Weekly game report
{{date .PeriodStart}} to {{date .PeriodEnd}}

{{.Stats.TotalPlayCount}} plays by {{.Stats.TotalStudents}} students.
{{range .Stats.GameTypeStats}}
- {{.GameName}}: {{.PlayCount}} plays, average {{printf "%.1f" .AvgScore}}, {{printf "%.0f" .CompletionRate}}% completed{{end}}
{{if .TopKnowledgePoints}}
Most missed knowledge points:{{range $i, $kp := .TopKnowledgePoints}}
{{inc $i}}. {{$kp.KnowledgePoint}}: {{$kp.ErrorCount}} errors across {{$kp.StudentCount}} students ({{$kp.DifficultyLevel}}){{end}}
{{end}}
Dashboard: {{.DashboardURL}}
`))

// Render returns the digest's subject and its HTML and text bodies
func (d *Digest) Render() (subject, html, text string, err error) {
	subject = fmt.Sprintf("Weekly game report: %s to %s", d.PeriodStart.Format(time.DateOnly), d.PeriodEnd.Format(time.DateOnly))

	var hb, tb bytes.Buffer
	if err := digestHTML.Execute(&hb, d); err != nil {
		return "", "", "", fmt.Errorf("failed to render digest: %w", err)
	}
	if err := digestText.Execute(&tb, d); err != nil {
		return "", "", "", fmt.Errorf("failed to render digest: %w", err)
	}
	return subject, hb.String(), tb.String(), nil
}
