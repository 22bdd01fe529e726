package report

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"gamedash/internal/games"
	"gamedash/internal/models"
)

// rawDataLimit caps the records echoed back in GlobalStats.RawData
const rawDataLimit = 100

// GlobalFilter narrows the global report. Date bounds are inclusive and
// each applies on its own when set.
type GlobalFilter struct {
	GameType  models.GameType
	StartDate *time.Time
	EndDate   *time.Time
}

func (f GlobalFilter) includes(t time.Time) bool {
	if f.StartDate != nil && t.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && t.After(*f.EndDate) {
		return false
	}
	return true
}

// GlobalStats is the cross-student report
type GlobalStats struct {
	TotalPlayCount   int                              `json:"totalPlayCount"`
	TotalStudents    int                              `json:"totalStudents"`
	GameTypeStats    []GameTypeStats                  `json:"gameTypeStats"`
	TrendsByGameType map[models.GameType][]DailyTrend `json:"trendsByGameType"`
	RawData          []Record                         `json:"rawData"`
}

// GameTypeStats summarises every play of one game
type GameTypeStats struct {
	GameType          models.GameType     `json:"gameType"`
	GameName          string              `json:"gameName"`
	PlayCount         int                 `json:"playCount"`
	AvgScore          float64             `json:"avgScore"`
	HighestScore      int                 `json:"highestScore"`
	LowestScore       int                 `json:"lowestScore"`
	CompletionRate    float64             `json:"completionRate"`
	UniqueStudents    int                 `json:"uniqueStudents"`
	ScoreDistribution []games.BucketCount `json:"scoreDistribution,omitempty"`
}

// DailyTrend is one day of a game's play trend
type DailyTrend struct {
	Date      string  `json:"date"`
	PlayCount int     `json:"playCount"`
	AvgScore  float64 `json:"avgScore"`
}

// GlobalStats aggregates records of every game in scope. Records are
// fetched per game concurrently; the first failing fetch aborts the report.
func (s *Service) GlobalStats(ctx context.Context, now time.Time, filter GlobalFilter) (*GlobalStats, error) {
	scope := games.Types()
	if filter.GameType != "" {
		if _, err := games.Lookup(filter.GameType); err != nil {
			return nil, err
		}
		scope = []models.GameType{filter.GameType}
	}

	batches := make([][]Record, len(scope))
	g, gctx := errgroup.WithContext(ctx)
	for i, gameType := range scope {
		g.Go(func() error {
			records, err := s.fetcher.FetchRecords(gctx, gameType)
			if err != nil {
				return err
			}
			batches[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Record
	for _, batch := range batches {
		for _, r := range batch {
			if filter.includes(r.PlayedAt) {
				all = append(all, r)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PlayedAt.After(all[j].PlayedAt)
	})

	byGame := make(map[models.GameType][]Record, len(scope))
	students := make(map[string]struct{})
	for _, r := range all {
		byGame[r.GameType] = append(byGame[r.GameType], r)
		students[r.UserName] = struct{}{}
	}

	stats := &GlobalStats{
		TotalPlayCount:   len(all),
		TotalStudents:    len(students),
		GameTypeStats:    make([]GameTypeStats, 0, len(scope)),
		TrendsByGameType: make(map[models.GameType][]DailyTrend, len(scope)),
		RawData:          all[:min(len(all), rawDataLimit)],
	}
	if stats.RawData == nil {
		stats.RawData = []Record{}
	}

	days := lastDays(now, trendDays)
	for _, gameType := range scope {
		d, _ := games.Lookup(gameType)
		stats.GameTypeStats = append(stats.GameTypeStats, summarizeGame(d, byGame[gameType]))
		stats.TrendsByGameType[gameType] = playTrend(days, now.Location(), byGame[gameType])
	}

	return stats, nil
}

func summarizeGame(d games.Descriptor, records []Record) GameTypeStats {
	st := GameTypeStats{
		GameType:  d.Type,
		GameName:  d.Name,
		PlayCount: len(records),
	}
	if len(records) == 0 {
		if d.HasHistogram() {
			st.ScoreDistribution = d.Histogram(nil)
		}
		return st
	}

	sum, completed := 0, 0
	scores := make([]int, len(records))
	students := make(map[string]struct{})
	st.HighestScore = records[0].Score
	st.LowestScore = records[0].Score
	for i, r := range records {
		scores[i] = r.Score
		sum += r.Score
		st.HighestScore = max(st.HighestScore, r.Score)
		st.LowestScore = min(st.LowestScore, r.Score)
		if r.IsCompleted {
			completed++
		}
		students[r.UserName] = struct{}{}
	}

	st.AvgScore = mean(sum, len(records))
	st.CompletionRate = float64(completed) / float64(len(records))
	st.UniqueStudents = len(students)
	st.ScoreDistribution = d.Histogram(scores)
	return st
}

func playTrend(days []time.Time, loc *time.Location, records []Record) []DailyTrend {
	type bucket struct{ count, sum int }
	byDay := make(map[string]*bucket)
	for _, r := range records {
		key := dayKey(r.PlayedAt, loc)
		b, ok := byDay[key]
		if !ok {
			b = &bucket{}
			byDay[key] = b
		}
		b.count++
		b.sum += r.Score
	}

	trend := make([]DailyTrend, len(days))
	for i, day := range days {
		key := day.Format(time.DateOnly)
		trend[i].Date = key
		if b, ok := byDay[key]; ok {
			trend[i].PlayCount = b.count
			trend[i].AvgScore = mean(b.sum, b.count)
		}
	}
	return trend
}
