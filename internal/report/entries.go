package report

import (
	"sort"
	"time"

	"gamedash/internal/models"
)

// SkipReason says why a stored error pattern or answer was left out
type SkipReason string

const (
	SkipMissingGame           SkipReason = "missing game reference"
	SkipMissingUser           SkipReason = "missing user reference"
	SkipNoAnswers             SkipReason = "no error answers"
	SkipMissingKnowledgePoint SkipReason = "missing knowledge point"
	SkipMissingWrongAnswer    SkipReason = "missing wrong answer"
)

var skipReasons = []SkipReason{
	SkipMissingGame,
	SkipMissingUser,
	SkipNoAnswers,
	SkipMissingKnowledgePoint,
	SkipMissingWrongAnswer,
}

// ErrorEntry is one flattened wrong-answer tally
type ErrorEntry struct {
	PatternID       string          `json:"patternId"`
	UserID          string          `json:"userId"`
	GameType        models.GameType `json:"gameType"`
	KnowledgePoint  string          `json:"knowledgePoint"`
	WrongAnswer     string          `json:"wrongAnswer"`
	ErrorCount      int             `json:"errorCount"`
	LastAttemptTime *time.Time      `json:"lastAttemptTime,omitempty"`
}

// normalized holds either an entry or the reason it was skipped
type normalized struct {
	entry ErrorEntry
	skip  SkipReason
}

// normalize flattens patterns into entries. A pattern missing a reference
// yields a single skip; each malformed answer yields its own.
func normalize(patterns []models.ErrorPattern) []normalized {
	var out []normalized
	for _, p := range patterns {
		switch {
		case !p.GameID.Valid || p.GameID.String == "":
			out = append(out, normalized{skip: SkipMissingGame})
			continue
		case !p.UserID.Valid || p.UserID.String == "":
			out = append(out, normalized{skip: SkipMissingUser})
			continue
		case len(p.Answers) == 0:
			out = append(out, normalized{skip: SkipNoAnswers})
			continue
		}

		keys := make([]string, 0, len(p.Answers))
		for k := range p.Answers {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			a := p.Answers[k]
			if !a.KnowledgePoint.Valid || a.KnowledgePoint.String == "" {
				out = append(out, normalized{skip: SkipMissingKnowledgePoint})
				continue
			}
			if !a.WrongAnswer.Valid || a.WrongAnswer.String == "" {
				out = append(out, normalized{skip: SkipMissingWrongAnswer})
				continue
			}

			e := ErrorEntry{
				PatternID:      p.ID,
				UserID:         p.UserID.String,
				GameType:       models.GameType(p.GameID.String),
				KnowledgePoint: a.KnowledgePoint.String,
				WrongAnswer:    a.WrongAnswer.String,
			}
			if a.ErrorCount.Valid && a.ErrorCount.Int64 > 0 {
				e.ErrorCount = int(a.ErrorCount.Int64)
			}
			if a.LastAttemptTime.Valid {
				t := a.LastAttemptTime.Time
				e.LastAttemptTime = &t
			}
			out = append(out, normalized{entry: e})
		}
	}
	return out
}

// fold keeps well-formed entries inside the filter's date range and counts
// the skipped ones, logging a warning per reason
func (s *Service) fold(results []normalized, filter ErrorFilter) ([]ErrorEntry, int) {
	entries := []ErrorEntry{}
	skips := make(map[SkipReason]int)
	for _, r := range results {
		if r.skip != "" {
			skips[r.skip]++
			continue
		}
		if filter.inRange(r.entry.LastAttemptTime) {
			entries = append(entries, r.entry)
		}
	}

	total := 0
	for _, reason := range skipReasons {
		if n := skips[reason]; n > 0 {
			s.logger.Warn("skipped malformed error data", "reason", string(reason), "count", n)
			total += n
		}
	}
	return entries, total
}

// AnswerCount is a wrong answer with its count and share of a total
type AnswerCount struct {
	Answer     string `json:"answer"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// rankAnswers orders counts descending, ties by answer, with shares of total
func rankAnswers(counts map[string]int, total int) []AnswerCount {
	out := make([]AnswerCount, 0, len(counts))
	for answer, n := range counts {
		out = append(out, AnswerCount{Answer: answer, Count: n, Percentage: percent(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Answer < out[j].Answer
	})
	return out
}

func sortedGameTypes(entries []ErrorEntry) []models.GameType {
	seen := make(map[models.GameType]struct{})
	var out []models.GameType
	for _, e := range entries {
		if _, ok := seen[e.GameType]; !ok {
			seen[e.GameType] = struct{}{}
			out = append(out, e.GameType)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func groupByGame(entries []ErrorEntry) map[models.GameType][]ErrorEntry {
	out := make(map[models.GameType][]ErrorEntry)
	for _, e := range entries {
		out[e.GameType] = append(out[e.GameType], e)
	}
	return out
}
