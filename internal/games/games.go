// Package games holds the per-game descriptor table: display name, how a
// student's records reduce to summary stats, and the score histogram buckets
// used by the global report. Adding a game is a new table entry.
package games

import (
	"errors"
	"fmt"

	"gamedash/internal/models"
)

// ErrInvalidGameType is returned for a game type missing from the table
var ErrInvalidGameType = errors.New("invalid game type")

// Bucket is one score histogram bin. Max is an inclusive upper bound;
// the last bucket of a game is open-ended.
type Bucket struct {
	Label     string
	Max       int
	Unbounded bool
}

func (b Bucket) contains(score int) bool {
	return b.Unbounded || score <= b.Max
}

// BucketCount is a histogram bin with its record count
type BucketCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Descriptor describes one game type
type Descriptor struct {
	Type    models.GameType
	Name    string
	Variant Variant
	Buckets []Bucket
}

var registry = map[models.GameType]Descriptor{
	models.Game1: {
		Type:    models.Game1,
		Name:    "汉字图片连连看",
		Variant: VariantLevel,
		Buckets: []Bucket{
			{Label: "0-30", Max: 30},
			{Label: "31-40", Max: 40},
			{Label: "41-50", Unbounded: true},
		},
	},
	models.Game2: {
		Type:    models.Game2,
		Name:    "汉字偏旁消消乐",
		Variant: VariantProgression,
	},
	models.Game3: {
		Type:    models.Game3,
		Name:    "量词贪吃蛇",
		Variant: VariantScore,
		Buckets: []Bucket{
			{Label: "0-1000", Max: 1000},
			{Label: "1001-2000", Max: 2000},
			{Label: "2000+", Unbounded: true},
		},
	},
}

// order fixes iteration order for reports
var order = []models.GameType{models.Game1, models.Game2, models.Game3}

// Lookup returns the descriptor for gameType
func Lookup(gameType models.GameType) (Descriptor, error) {
	d, ok := registry[gameType]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidGameType, gameType)
	}
	return d, nil
}

// Parse validates a raw game identifier
func Parse(s string) (models.GameType, error) {
	gameType := models.GameType(s)
	if _, err := Lookup(gameType); err != nil {
		return "", err
	}
	return gameType, nil
}

// Types lists every known game type in report order
func Types() []models.GameType {
	out := make([]models.GameType, len(order))
	copy(out, order)
	return out
}

// Name returns the display name of gameType, or the raw id when unknown
func Name(gameType models.GameType) string {
	if d, ok := registry[gameType]; ok {
		return d.Name
	}
	return string(gameType)
}

// HasHistogram reports whether the game defines score buckets
func (d Descriptor) HasHistogram() bool {
	return len(d.Buckets) > 0
}

// Histogram counts scores into the game's buckets. It returns nil for games
// without buckets.
func (d Descriptor) Histogram(scores []int) []BucketCount {
	if !d.HasHistogram() {
		return nil
	}
	out := make([]BucketCount, len(d.Buckets))
	for i, b := range d.Buckets {
		out[i].Label = b.Label
	}
	for _, score := range scores {
		for i, b := range d.Buckets {
			if b.contains(score) {
				out[i].Count++
				break
			}
		}
	}
	return out
}
