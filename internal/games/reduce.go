package games

import (
	"sort"

	"gamedash/internal/models"
)

// Variant selects how a game's records reduce to per-student stats
type Variant int

const (
	// VariantLevel keeps the best score per level
	VariantLevel Variant = iota + 1
	// VariantProgression tracks the furthest level reached
	VariantProgression
	// VariantScore tracks the single best score
	VariantScore
)

func (v Variant) String() string {
	switch v {
	case VariantLevel:
		return "level"
	case VariantProgression:
		return "progression"
	case VariantScore:
		return "score"
	default:
		return "unknown"
	}
}

// GameStats is a student's summary for one game. The concrete type depends
// on the game's Variant.
type GameStats interface {
	Variant() Variant
	// Plays is the number of plays shown on the dashboard
	Plays() int
	// Best is the figure used to rank a student's games
	Best() int
}

// LevelStats summarises a level-based game
type LevelStats struct {
	TotalPlayCount  int         `json:"totalPlayCount"`
	LevelHighScores map[int]int `json:"levelHighScores"`
	TotalScore      int         `json:"totalScore"`
	CompletedLevels []int       `json:"completedLevels"`
}

func (s *LevelStats) Variant() Variant { return VariantLevel }
func (s *LevelStats) Plays() int       { return s.TotalPlayCount }
func (s *LevelStats) Best() int        { return s.TotalScore }

// ProgressionStats summarises a progression game. Level 0 records mark the
// start of a session.
type ProgressionStats struct {
	PlayCount    int `json:"playCount"`
	MaxLevel     int `json:"maxLevel"`
	HighestScore int `json:"highestScore"`
}

func (s *ProgressionStats) Variant() Variant { return VariantProgression }
func (s *ProgressionStats) Plays() int       { return s.PlayCount }
func (s *ProgressionStats) Best() int        { return s.HighestScore }

// ScoreStats summarises a score-only game
type ScoreStats struct {
	PlayCount    int `json:"playCount"`
	HighestScore int `json:"highestScore"`
}

func (s *ScoreStats) Variant() Variant { return VariantScore }
func (s *ScoreStats) Plays() int       { return s.PlayCount }
func (s *ScoreStats) Best() int        { return s.HighestScore }

var reducers = map[Variant]func([]models.PlayRecord) GameStats{
	VariantLevel:       reduceLevel,
	VariantProgression: reduceProgression,
	VariantScore:       reduceScore,
}

// Reduce folds one student's records for gameType into its summary stats
func Reduce(gameType models.GameType, records []models.PlayRecord) (GameStats, error) {
	d, err := Lookup(gameType)
	if err != nil {
		return nil, err
	}
	return d.Reduce(records), nil
}

// Reduce folds records using the descriptor's variant
func (d Descriptor) Reduce(records []models.PlayRecord) GameStats {
	return reducers[d.Variant](records)
}

func reduceLevel(records []models.PlayRecord) GameStats {
	stats := &LevelStats{
		TotalPlayCount:  len(records),
		LevelHighScores: make(map[int]int),
		CompletedLevels: []int{},
	}

	completed := make(map[int]bool)
	for _, r := range records {
		if best, ok := stats.LevelHighScores[r.Level]; !ok || r.Score > best {
			stats.LevelHighScores[r.Level] = r.Score
		}
		if r.IsCompleted {
			completed[r.Level] = true
		}
	}

	for _, score := range stats.LevelHighScores {
		stats.TotalScore += score
	}
	for level := range completed {
		stats.CompletedLevels = append(stats.CompletedLevels, level)
	}
	sort.Ints(stats.CompletedLevels)

	return stats
}

func reduceProgression(records []models.PlayRecord) GameStats {
	stats := &ProgressionStats{}

	for _, r := range records {
		if r.Level == 0 {
			stats.PlayCount++
		}
		// TODO: decide with product whether a completed run should beat a
		// higher score at the same max level; today completion is ignored.
		if r.Level > stats.MaxLevel || (r.Level == stats.MaxLevel && r.Score > stats.HighestScore) {
			stats.MaxLevel = r.Level
			stats.HighestScore = r.Score
		}
	}

	return stats
}

func reduceScore(records []models.PlayRecord) GameStats {
	stats := &ScoreStats{PlayCount: len(records)}

	for _, r := range records {
		if r.Score > stats.HighestScore {
			stats.HighestScore = r.Score
		}
	}

	return stats
}
