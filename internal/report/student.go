package report

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"gamedash/internal/games"
	"gamedash/internal/models"
)

const (
	recentPlaysLimit = 10
	// studentFanout bounds concurrent lookups in AllStudentsGameStats
	studentFanout = 8
)

// StudentGameReport is one game's section of a student's progress report
type StudentGameReport struct {
	GameType       models.GameType `json:"gameType"`
	GameName       string          `json:"gameName"`
	Stats          games.GameStats `json:"stats"`
	AvgScore       float64         `json:"avgScore"`
	CompletionRate float64         `json:"completionRate"`
	PlayHistory    []DailyTrend    `json:"playHistory"`
}

// BestGame is the game a student scores best in
type BestGame struct {
	GameType models.GameType `json:"gameType"`
	GameName string          `json:"gameName"`
	Score    int             `json:"score"`
}

// RecentPlay is one entry of a student's recent activity
type RecentPlay struct {
	GameType  models.GameType `json:"gameType"`
	GameName  string          `json:"gameName"`
	PlayedAt  time.Time       `json:"playedAt"`
	Score     int             `json:"score"`
	Completed bool            `json:"completed"`
}

// StudentProgress is the single-student dashboard report
type StudentProgress struct {
	Student        models.StudentProfile `json:"student"`
	TotalPlayCount int                   `json:"totalPlayCount"`
	Games          []StudentGameReport   `json:"games"`
	BestGame       *BestGame             `json:"bestGame"`
	RecentGames    []RecentPlay          `json:"recentGames"`
}

// StudentStats pairs a student with their stats for one game
type StudentStats struct {
	Student models.StudentProfile `json:"student"`
	Stats   games.GameStats       `json:"stats"`
}

// StudentGameStats reduces one student's records for gameType
func (s *Service) StudentGameStats(ctx context.Context, studentID string, gameType models.GameType) (games.GameStats, error) {
	d, err := games.Lookup(gameType)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListByUserAndGame(ctx, studentID, gameType)
	if err != nil {
		return nil, unavailable("fetch student records", err)
	}
	return d.Reduce(records), nil
}

// StudentProgress builds the progress report of one student across all games
func (s *Service) StudentProgress(ctx context.Context, now time.Time, studentID string) (*StudentProgress, error) {
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, unavailable("get student", err)
	}
	if student == nil {
		return nil, ErrNotFound
	}

	types := games.Types()
	perGame := make([][]models.PlayRecord, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, gameType := range types {
		g.Go(func() error {
			records, err := s.records.ListByUserAndGame(gctx, studentID, gameType)
			if err != nil {
				return unavailable("fetch student records", err)
			}
			perGame[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	progress := &StudentProgress{
		Student:     student.StudentProfile(),
		Games:       make([]StudentGameReport, 0, len(types)),
		RecentGames: []RecentPlay{},
	}

	days := lastDays(now, trendDays)
	for i, gameType := range types {
		d, _ := games.Lookup(gameType)
		records := perGame[i]

		report := StudentGameReport{
			GameType:    gameType,
			GameName:    d.Name,
			Stats:       d.Reduce(records),
			PlayHistory: studentTrend(days, now.Location(), records),
		}
		sum, completed := 0, 0
		for _, r := range records {
			sum += r.Score
			if r.IsCompleted {
				completed++
			}
			progress.RecentGames = append(progress.RecentGames, RecentPlay{
				GameType:  gameType,
				GameName:  d.Name,
				PlayedAt:  r.PlayedAt,
				Score:     r.Score,
				Completed: r.IsCompleted,
			})
		}
		report.AvgScore = mean(sum, len(records))
		if len(records) > 0 {
			report.CompletionRate = float64(completed) / float64(len(records))
		}

		progress.TotalPlayCount += report.Stats.Plays()
		if len(records) > 0 && (progress.BestGame == nil || report.Stats.Best() > progress.BestGame.Score) {
			progress.BestGame = &BestGame{GameType: gameType, GameName: d.Name, Score: report.Stats.Best()}
		}
		progress.Games = append(progress.Games, report)
	}

	sort.SliceStable(progress.RecentGames, func(i, j int) bool {
		return progress.RecentGames[i].PlayedAt.After(progress.RecentGames[j].PlayedAt)
	})
	progress.RecentGames = progress.RecentGames[:min(len(progress.RecentGames), recentPlaysLimit)]

	return progress, nil
}

func studentTrend(days []time.Time, loc *time.Location, records []models.PlayRecord) []DailyTrend {
	tagged := make([]Record, len(records))
	for i, r := range records {
		tagged[i].PlayRecord = r
	}
	return playTrend(days, loc, tagged)
}

// AllStudentsGameStats reduces every student's records for gameType. A
// student whose records cannot be loaded is skipped with a warning.
func (s *Service) AllStudentsGameStats(ctx context.Context, gameType models.GameType) ([]StudentStats, error) {
	if _, err := games.Lookup(gameType); err != nil {
		return nil, err
	}

	students, err := s.users.ListByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, unavailable("list students", err)
	}

	results := make([]*StudentStats, len(students))
	var g errgroup.Group
	g.SetLimit(studentFanout)
	for i, student := range students {
		g.Go(func() error {
			stats, err := s.StudentGameStats(ctx, student.ID, gameType)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				s.logger.Warn("skipping student stats", "student_id", student.ID, "game", gameType, "error", err)
				return nil
			}
			results[i] = &StudentStats{Student: student.StudentProfile(), Stats: stats}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]StudentStats, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}
