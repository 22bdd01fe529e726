package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gamedash/internal/games"
	"gamedash/internal/models"
	"gamedash/internal/repository"
)

const (
	// defaultErrorLimit caps unfiltered error queries
	defaultErrorLimit  = 100
	commonErrorsPerDay = 3
	topErrorsPerPoint  = 3
	// DistributionDisplayLimit is how many wrong answers the dashboard lists per game
	DistributionDisplayLimit = 8
)

// ErrInvalidFilter is returned for a malformed error filter
var ErrInvalidFilter = errors.New("invalid filter")

// Scope tells which shape of ErrorAnalysis was produced
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeStudent Scope = "student"
)

// ErrorFilter narrows an error analysis. Date bounds apply to each answer's
// last attempt time and are inclusive.
type ErrorFilter struct {
	GameType   models.GameType
	StudentID  string
	StartDate  *time.Time
	EndDate    *time.Time
	OrderBy    string
	Descending bool
	Limit      int
}

func (f ErrorFilter) validate() error {
	if f.GameType != "" {
		if _, err := games.Lookup(f.GameType); err != nil {
			return err
		}
	}
	if !repository.IsOrderField(f.OrderBy) {
		return fmt.Errorf("%w: cannot order by %q", ErrInvalidFilter, f.OrderBy)
	}
	if f.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidFilter)
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidFilter)
	}
	return nil
}

func (f ErrorFilter) query() repository.ErrorPatternQuery {
	limit := f.Limit
	if limit == 0 && f.StudentID == "" && f.GameType == "" {
		limit = defaultErrorLimit
	}
	return repository.ErrorPatternQuery{
		UserID:     f.StudentID,
		GameID:     string(f.GameType),
		Start:      f.StartDate,
		End:        f.EndDate,
		OrderBy:    f.OrderBy,
		Descending: f.Descending,
		Limit:      limit,
	}
}

func (f ErrorFilter) inRange(t *time.Time) bool {
	if f.StartDate == nil && f.EndDate == nil {
		return true
	}
	if t == nil {
		return false
	}
	if f.StartDate != nil && t.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && t.After(*f.EndDate) {
		return false
	}
	return true
}

// ErrorAnalysis is the result of AnalyzeErrors. Scope selects which of the
// optional sections are filled: ErrorConcentration for ScopeGlobal, RawData
// and KnowledgePointAnalysis for ScopeStudent.
type ErrorAnalysis struct {
	Scope                 Scope                                 `json:"scope"`
	TotalRecords          int                                   `json:"totalRecords"`
	Skipped               int                                   `json:"skipped"`
	ErrorTypeDistribution []GameErrorDistribution               `json:"errorTypeDistribution"`
	ErrorFrequencyTrend   []DailyErrors                         `json:"errorFrequencyTrend"`
	GameAnalysis          map[models.GameType]GameErrorAnalysis `json:"gameAnalysis"`

	ErrorConcentration *ErrorConcentration `json:"errorConcentration,omitempty"`

	StudentID              string                  `json:"studentId,omitempty"`
	RawData                []ErrorEntry            `json:"rawData,omitempty"`
	KnowledgePointAnalysis []KnowledgePointSummary `json:"knowledgePointAnalysis,omitempty"`
	TotalErrorCount        int                     `json:"totalErrorCount,omitempty"`
}

// GameErrorDistribution ranks one game's wrong answers
type GameErrorDistribution struct {
	GameType      models.GameType    `json:"gameType"`
	GameName      string             `json:"gameName"`
	TotalErrors   int                `json:"totalErrors"`
	SampleCount   int                `json:"sampleCount"`
	ErrorPatterns []WrongAnswerShare `json:"errorPatterns"`
}

// Top returns at most n of the highest ranked wrong answers
func (d GameErrorDistribution) Top(n int) []WrongAnswerShare {
	return d.ErrorPatterns[:min(n, len(d.ErrorPatterns))]
}

// WrongAnswerShare is one wrong answer's share of a game's errors
type WrongAnswerShare struct {
	WrongAnswer     string   `json:"wrongAnswer"`
	Count           int      `json:"count"`
	Percentage      int      `json:"percentage"`
	KnowledgePoints []string `json:"knowledgePoints"`
}

// DailyErrors is one day of the error frequency trend
type DailyErrors struct {
	Date        string            `json:"date"`
	DailyErrors []GameDailyErrors `json:"dailyErrors"`
}

// GameDailyErrors is one game's errors on one day
type GameDailyErrors struct {
	GameType     models.GameType `json:"gameType"`
	GameName     string          `json:"gameName"`
	ErrorCount   int             `json:"errorCount"`
	CommonErrors []string        `json:"commonErrors"`
}

// ErrorConcentration ranks knowledge points across all games
type ErrorConcentration struct {
	KnowledgePoints      []KnowledgePointConcentration `json:"knowledgePoints"`
	TotalErrors          int                           `json:"totalErrors"`
	TotalKnowledgePoints int                           `json:"totalKnowledgePoints"`
	DifficultyGroups     DifficultyGroups              `json:"difficultyGroups"`
}

// KnowledgePointConcentration is one knowledge point's error profile.
// Difficulty is the mean error count per affected student.
type KnowledgePointConcentration struct {
	KnowledgePoint  string        `json:"knowledgePoint"`
	ErrorCount      int           `json:"errorCount"`
	StudentCount    int           `json:"studentCount"`
	GameCount       int           `json:"gameCount"`
	Difficulty      float64       `json:"difficulty"`
	DifficultyLevel string        `json:"difficultyLevel"`
	TopErrors       []AnswerCount `json:"topErrors"`
}

// DifficultyGroups counts knowledge points per difficulty level
type DifficultyGroups struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// GameErrorAnalysis breaks one game's errors down by knowledge point
type GameErrorAnalysis struct {
	GameName            string               `json:"gameName"`
	TotalPatterns       int                  `json:"totalPatterns"`
	TotalStudents       int                  `json:"totalStudents"`
	KnowledgePointStats []KnowledgePointStat `json:"knowledgePointStats"`
	TotalErrors         int                  `json:"totalErrors"`
}

// KnowledgePointStat is one knowledge point within a game
type KnowledgePointStat struct {
	KnowledgePoint    string        `json:"knowledgePoint"`
	TotalErrors       int           `json:"totalErrors"`
	ErrorDistribution []AnswerCount `json:"errorDistribution"`
}

// KnowledgePointSummary is a single student's errors on one knowledge point
type KnowledgePointSummary struct {
	KnowledgePoint  string        `json:"knowledgePoint"`
	TotalErrors     int           `json:"totalErrors"`
	LastAttemptTime *time.Time    `json:"lastAttemptTime,omitempty"`
	WrongAnswers    []AnswerCount `json:"wrongAnswers"`
}

// AnalyzeErrors aggregates stored error patterns. Malformed patterns and
// answers are skipped and counted in Skipped.
func (s *Service) AnalyzeErrors(ctx context.Context, now time.Time, filter ErrorFilter) (*ErrorAnalysis, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	patterns, err := s.patterns.Query(ctx, filter.query())
	if err != nil {
		return nil, unavailable("query error patterns", err)
	}

	entries, skipped := s.fold(normalize(patterns), filter)

	analysis := &ErrorAnalysis{
		Scope:                 ScopeGlobal,
		TotalRecords:          len(patterns),
		Skipped:               skipped,
		ErrorTypeDistribution: errorTypeDistribution(entries),
		ErrorFrequencyTrend:   errorFrequencyTrend(now, entries),
		GameAnalysis:          gameAnalysis(entries),
	}

	if filter.StudentID == "" {
		analysis.ErrorConcentration = errorConcentration(entries)
		return analysis, nil
	}

	analysis.Scope = ScopeStudent
	analysis.StudentID = filter.StudentID
	analysis.RawData = entries
	analysis.KnowledgePointAnalysis = knowledgePointAnalysis(entries)
	for _, kp := range analysis.KnowledgePointAnalysis {
		analysis.TotalErrorCount += kp.TotalErrors
	}
	return analysis, nil
}

func errorTypeDistribution(entries []ErrorEntry) []GameErrorDistribution {
	out := []GameErrorDistribution{}
	byGame := groupByGame(entries)

	for _, gameType := range sortedGameTypes(entries) {
		group := byGame[gameType]

		total := 0
		samples := make(map[string]struct{})
		counts := make(map[string]int)
		points := make(map[string]map[string]struct{})
		for _, e := range group {
			total += e.ErrorCount
			samples[e.PatternID] = struct{}{}
			counts[e.WrongAnswer] += e.ErrorCount
			if points[e.WrongAnswer] == nil {
				points[e.WrongAnswer] = make(map[string]struct{})
			}
			points[e.WrongAnswer][e.KnowledgePoint] = struct{}{}
		}
		if total == 0 {
			continue
		}

		ranked := rankAnswers(counts, total)
		shares := make([]WrongAnswerShare, len(ranked))
		for i, a := range ranked {
			shares[i] = WrongAnswerShare{
				WrongAnswer:     a.Answer,
				Count:           a.Count,
				Percentage:      a.Percentage,
				KnowledgePoints: sortedKeys(points[a.Answer]),
			}
		}

		out = append(out, GameErrorDistribution{
			GameType:      gameType,
			GameName:      games.Name(gameType),
			TotalErrors:   total,
			SampleCount:   len(samples),
			ErrorPatterns: shares,
		})
	}
	return out
}

func errorFrequencyTrend(now time.Time, entries []ErrorEntry) []DailyErrors {
	if len(entries) == 0 {
		return []DailyErrors{}
	}

	type dayGame struct {
		day  string
		game models.GameType
	}
	loc := now.Location()
	counts := make(map[dayGame]int)
	answers := make(map[dayGame]map[string]int)
	for _, e := range entries {
		if e.LastAttemptTime == nil || e.ErrorCount == 0 {
			continue
		}
		k := dayGame{day: dayKey(*e.LastAttemptTime, loc), game: e.GameType}
		counts[k] += e.ErrorCount
		if answers[k] == nil {
			answers[k] = make(map[string]int)
		}
		answers[k][e.WrongAnswer] += e.ErrorCount
	}

	gameTypes := sortedGameTypes(entries)
	days := lastDays(now, trendDays)
	trend := make([]DailyErrors, len(days))
	for i, day := range days {
		date := day.Format(time.DateOnly)
		trend[i] = DailyErrors{Date: date, DailyErrors: []GameDailyErrors{}}
		for _, gameType := range gameTypes {
			k := dayGame{day: date, game: gameType}
			n := counts[k]
			if n == 0 {
				continue
			}
			ranked := rankAnswers(answers[k], n)
			common := make([]string, 0, commonErrorsPerDay)
			for _, a := range ranked[:min(len(ranked), commonErrorsPerDay)] {
				common = append(common, a.Answer)
			}
			trend[i].DailyErrors = append(trend[i].DailyErrors, GameDailyErrors{
				GameType:     gameType,
				GameName:     games.Name(gameType),
				ErrorCount:   n,
				CommonErrors: common,
			})
		}
	}
	return trend
}

func difficultyLevel(count, maxCount int) string {
	if maxCount == 0 {
		return "low"
	}
	ratio := float64(count) / float64(maxCount)
	switch {
	case ratio >= 0.7:
		return "high"
	case ratio >= 0.3:
		return "medium"
	default:
		return "low"
	}
}

func errorConcentration(entries []ErrorEntry) *ErrorConcentration {
	type acc struct {
		count    int
		students map[string]struct{}
		games    map[models.GameType]struct{}
		answers  map[string]int
	}
	byPoint := make(map[string]*acc)
	for _, e := range entries {
		a, ok := byPoint[e.KnowledgePoint]
		if !ok {
			a = &acc{
				students: make(map[string]struct{}),
				games:    make(map[models.GameType]struct{}),
				answers:  make(map[string]int),
			}
			byPoint[e.KnowledgePoint] = a
		}
		a.count += e.ErrorCount
		a.students[e.UserID] = struct{}{}
		a.games[e.GameType] = struct{}{}
		a.answers[e.WrongAnswer] += e.ErrorCount
	}

	maxCount := 0
	for _, a := range byPoint {
		maxCount = max(maxCount, a.count)
	}

	c := &ErrorConcentration{KnowledgePoints: make([]KnowledgePointConcentration, 0, len(byPoint))}
	for point, a := range byPoint {
		ranked := rankAnswers(a.answers, a.count)
		kp := KnowledgePointConcentration{
			KnowledgePoint:  point,
			ErrorCount:      a.count,
			StudentCount:    len(a.students),
			GameCount:       len(a.games),
			Difficulty:      mean(a.count, len(a.students)),
			DifficultyLevel: difficultyLevel(a.count, maxCount),
			TopErrors:       ranked[:min(len(ranked), topErrorsPerPoint)],
		}
		switch kp.DifficultyLevel {
		case "high":
			c.DifficultyGroups.High++
		case "medium":
			c.DifficultyGroups.Medium++
		default:
			c.DifficultyGroups.Low++
		}
		c.TotalErrors += a.count
		c.KnowledgePoints = append(c.KnowledgePoints, kp)
	}
	sort.Slice(c.KnowledgePoints, func(i, j int) bool {
		pi, pj := c.KnowledgePoints[i], c.KnowledgePoints[j]
		if pi.ErrorCount != pj.ErrorCount {
			return pi.ErrorCount > pj.ErrorCount
		}
		return pi.KnowledgePoint < pj.KnowledgePoint
	})
	c.TotalKnowledgePoints = len(c.KnowledgePoints)
	return c
}

func gameAnalysis(entries []ErrorEntry) map[models.GameType]GameErrorAnalysis {
	out := make(map[models.GameType]GameErrorAnalysis)
	for gameType, group := range groupByGame(entries) {
		patterns := make(map[string]struct{})
		students := make(map[string]struct{})
		totals := make(map[string]int)
		answers := make(map[string]map[string]int)
		for _, e := range group {
			patterns[e.PatternID] = struct{}{}
			students[e.UserID] = struct{}{}
			totals[e.KnowledgePoint] += e.ErrorCount
			if answers[e.KnowledgePoint] == nil {
				answers[e.KnowledgePoint] = make(map[string]int)
			}
			answers[e.KnowledgePoint][e.WrongAnswer] += e.ErrorCount
		}

		ga := GameErrorAnalysis{
			GameName:            games.Name(gameType),
			TotalPatterns:       len(patterns),
			TotalStudents:       len(students),
			KnowledgePointStats: make([]KnowledgePointStat, 0, len(totals)),
		}
		for point, total := range totals {
			ga.KnowledgePointStats = append(ga.KnowledgePointStats, KnowledgePointStat{
				KnowledgePoint:    point,
				TotalErrors:       total,
				ErrorDistribution: rankAnswers(answers[point], total),
			})
			ga.TotalErrors += total
		}
		sort.Slice(ga.KnowledgePointStats, func(i, j int) bool {
			si, sj := ga.KnowledgePointStats[i], ga.KnowledgePointStats[j]
			if si.TotalErrors != sj.TotalErrors {
				return si.TotalErrors > sj.TotalErrors
			}
			return si.KnowledgePoint < sj.KnowledgePoint
		})
		out[gameType] = ga
	}
	return out
}

func knowledgePointAnalysis(entries []ErrorEntry) []KnowledgePointSummary {
	index := make(map[string]int)
	var out []KnowledgePointSummary
	answers := make(map[string]map[string]int)

	for _, e := range entries {
		i, ok := index[e.KnowledgePoint]
		if !ok {
			i = len(out)
			index[e.KnowledgePoint] = i
			out = append(out, KnowledgePointSummary{KnowledgePoint: e.KnowledgePoint})
			answers[e.KnowledgePoint] = make(map[string]int)
		}
		kp := &out[i]
		kp.TotalErrors += e.ErrorCount
		answers[e.KnowledgePoint][e.WrongAnswer] += e.ErrorCount
		if e.LastAttemptTime != nil && (kp.LastAttemptTime == nil || e.LastAttemptTime.After(*kp.LastAttemptTime)) {
			t := *e.LastAttemptTime
			kp.LastAttemptTime = &t
		}
	}

	for i := range out {
		out[i].WrongAnswers = rankAnswers(answers[out[i].KnowledgePoint], out[i].TotalErrors)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalErrors != out[j].TotalErrors {
			return out[i].TotalErrors > out[j].TotalErrors
		}
		return out[i].KnowledgePoint < out[j].KnowledgePoint
	})
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
