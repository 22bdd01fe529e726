package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamedash/internal/models"
)

func TestStudentErrorTrend(t *testing.T) {
	patterns := errorFixture()
	trend, err := newTestService(nil, nil, patterns).StudentErrorTrend(context.Background(), fixedNow, "s1", 3)
	require.NoError(t, err)

	assert.Equal(t, "2024-06-13", trend.StartDate)
	assert.Equal(t, "2024-06-15", trend.EndDate)
	require.Len(t, trend.Days, 3)

	assert.Equal(t, DailyErrorTotal{Date: "2024-06-13", Total: 4, ByKnowledgePoint: map[string]int{"3": 4, "4": 0}}, trend.Days[0])
	assert.Equal(t, DailyErrorTotal{Date: "2024-06-14", Total: 2, ByKnowledgePoint: map[string]int{"条": 2}}, trend.Days[1])
	assert.Equal(t, 6, trend.Days[2].Total)
	assert.Equal(t, 6, trend.Days[2].ByKnowledgePoint["个"])

	assert.Equal(t, "s1", patterns.last.UserID)
	require.NotNil(t, patterns.last.Start)
	assert.True(t, patterns.last.Start.Equal(daysAgo(2, 0)))
}

func TestStudentErrorTrendDefaultsToThirtyDays(t *testing.T) {
	trend, err := newTestService(nil, nil, &fakePatterns{}).StudentErrorTrend(context.Background(), fixedNow, "s1", 0)
	require.NoError(t, err)

	require.Len(t, trend.Days, 30)
	assert.Equal(t, "2024-05-17", trend.StartDate)
	for _, d := range trend.Days {
		assert.Zero(t, d.Total)
		assert.NotNil(t, d.ByKnowledgePoint)
	}
	assert.NotNil(t, trend.KnowledgePointAnalysis)
}

func TestStudentErrorTrendEmptyStudent(t *testing.T) {
	patterns := &fakePatterns{patterns: []models.ErrorPattern{}}
	trend, err := newTestService(nil, nil, patterns).StudentErrorTrend(context.Background(), fixedNow, "nobody", 7)
	require.NoError(t, err)

	assert.Len(t, trend.Days, 7)
	assert.Empty(t, trend.ErrorTypeDistribution)
}
