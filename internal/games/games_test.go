package games

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamedash/internal/models"
)

func rec(level, score int, completed bool) models.PlayRecord {
	return models.PlayRecord{Level: level, Score: score, IsCompleted: completed}
}

func TestLookup(t *testing.T) {
	d, err := Lookup(models.Game3)
	require.NoError(t, err)
	assert.Equal(t, "量词贪吃蛇", d.Name)
	assert.Equal(t, VariantScore, d.Variant)

	_, err = Lookup("Game9")
	assert.True(t, errors.Is(err, ErrInvalidGameType))
}

func TestParse(t *testing.T) {
	gt, err := Parse("Game1")
	require.NoError(t, err)
	assert.Equal(t, models.Game1, gt)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrInvalidGameType)
}

func TestTypesOrderAndCopy(t *testing.T) {
	types := Types()
	assert.Equal(t, []models.GameType{models.Game1, models.Game2, models.Game3}, types)

	types[0] = "mutated"
	assert.Equal(t, models.Game1, Types()[0])
}

func TestName(t *testing.T) {
	assert.Equal(t, "汉字偏旁消消乐", Name(models.Game2))
	assert.Equal(t, "mystery", Name("mystery"))
}

func TestHistogramBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		game   models.GameType
		scores []int
		want   []BucketCount
	}{
		{
			name:   "game1 inclusive edges",
			game:   models.Game1,
			scores: []int{0, 30, 31, 40, 41, 50},
			want: []BucketCount{
				{Label: "0-30", Count: 2},
				{Label: "31-40", Count: 2},
				{Label: "41-50", Count: 2},
			},
		},
		{
			name:   "game3 inclusive edges",
			game:   models.Game3,
			scores: []int{1000, 1001, 2000, 2001, 9999},
			want: []BucketCount{
				{Label: "0-1000", Count: 1},
				{Label: "1001-2000", Count: 2},
				{Label: "2000+", Count: 2},
			},
		},
		{
			name:   "empty input keeps labels",
			game:   models.Game3,
			scores: nil,
			want: []BucketCount{
				{Label: "0-1000"},
				{Label: "1001-2000"},
				{Label: "2000+"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Lookup(tt.game)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Histogram(tt.scores))
		})
	}
}

func TestHistogramNotDefinedForProgression(t *testing.T) {
	d, err := Lookup(models.Game2)
	require.NoError(t, err)
	assert.False(t, d.HasHistogram())
	assert.Nil(t, d.Histogram([]int{1, 2, 3}))
}
