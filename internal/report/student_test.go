package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamedash/internal/games"
	"gamedash/internal/models"
)

func TestStudentGameStats(t *testing.T) {
	records := &fakeRecords{records: []models.PlayRecord{
		play("a", "s1", models.Game1, 1, 30, false, daysAgo(1, 9)),
		play("b", "s1", models.Game1, 1, 45, true, daysAgo(0, 9)),
		play("c", "s2", models.Game1, 1, 50, true, daysAgo(0, 9)),
	}}
	svc := newTestService(records, nil, nil)

	stats, err := svc.StudentGameStats(context.Background(), "s1", models.Game1)
	require.NoError(t, err)
	ls := stats.(*games.LevelStats)
	assert.Equal(t, 45, ls.LevelHighScores[1])
	assert.Equal(t, 45, ls.TotalScore)

	_, err = svc.StudentGameStats(context.Background(), "s1", "Game5")
	assert.ErrorIs(t, err, games.ErrInvalidGameType)

	records.failUser = "s1"
	_, err = svc.StudentGameStats(context.Background(), "s1", models.Game1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestStudentProgress(t *testing.T) {
	records := &fakeRecords{records: []models.PlayRecord{
		play("a", "s1", models.Game1, 1, 30, false, daysAgo(1, 9)),
		play("b", "s1", models.Game1, 1, 45, true, daysAgo(0, 9)),
		play("c", "s1", models.Game1, 2, 20, true, daysAgo(0, 10)),
		play("d", "s1", models.Game2, 0, 0, false, daysAgo(2, 9)),
		play("e", "s1", models.Game2, 3, 15, false, daysAgo(2, 10)),
		play("f", "s1", models.Game3, 0, 120, false, daysAgo(3, 9)),
		play("g", "s2", models.Game3, 0, 9000, false, daysAgo(0, 9)),
	}}
	users := newFakeUsers(student("s1", "Ada"))

	progress, err := newTestService(records, users, nil).StudentProgress(context.Background(), fixedNow, "s1")
	require.NoError(t, err)

	assert.Equal(t, "Ada", progress.Student.DisplayName)
	require.Len(t, progress.Games, 3)
	// Game1 counts every record, Game2 counts level-0 starts, Game3 every record
	assert.Equal(t, 3+1+1, progress.TotalPlayCount)

	g1 := progress.Games[0]
	assert.Equal(t, 65, g1.Stats.Best())
	assert.InDelta(t, 95.0/3, g1.AvgScore, 1e-9)
	assert.InDelta(t, 2.0/3, g1.CompletionRate, 1e-9)
	require.Len(t, g1.PlayHistory, 7)
	assert.Equal(t, 2, g1.PlayHistory[6].PlayCount)

	require.NotNil(t, progress.BestGame)
	assert.Equal(t, models.Game3, progress.BestGame.GameType)
	assert.Equal(t, 120, progress.BestGame.Score)

	require.Len(t, progress.RecentGames, 6)
	assert.True(t, progress.RecentGames[0].PlayedAt.Equal(daysAgo(0, 10)))
	assert.Equal(t, models.Game3, progress.RecentGames[5].GameType)
}

func TestStudentProgressWithoutPlays(t *testing.T) {
	users := newFakeUsers(student("s1", "Ada"))
	progress, err := newTestService(nil, users, nil).StudentProgress(context.Background(), fixedNow, "s1")
	require.NoError(t, err)

	assert.Zero(t, progress.TotalPlayCount)
	assert.Nil(t, progress.BestGame)
	assert.Empty(t, progress.RecentGames)
	for _, g := range progress.Games {
		assert.Zero(t, g.CompletionRate)
		assert.Len(t, g.PlayHistory, 7)
	}
}

func TestStudentProgressRecentGamesCapped(t *testing.T) {
	records := &fakeRecords{}
	for i := 0; i < 15; i++ {
		records.records = append(records.records,
			play(fmt.Sprintf("r%d", i), "s1", models.Game3, 0, i, false, fixedNow.Add(-time.Duration(i)*time.Hour)))
	}
	progress, err := newTestService(records, newFakeUsers(student("s1", "Ada")), nil).
		StudentProgress(context.Background(), fixedNow, "s1")
	require.NoError(t, err)

	assert.Len(t, progress.RecentGames, 10)
	assert.Equal(t, 0, progress.RecentGames[0].Score)
}

func TestStudentProgressErrors(t *testing.T) {
	_, err := newTestService(nil, nil, nil).StudentProgress(context.Background(), fixedNow, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	users := newFakeUsers(student("s1", "Ada"))
	users.failID = "s1"
	_, err = newTestService(nil, users, nil).StudentProgress(context.Background(), fixedNow, "s1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	records := &fakeRecords{failUser: "s2"}
	_, err = newTestService(records, newFakeUsers(student("s2", "Bo")), nil).
		StudentProgress(context.Background(), fixedNow, "s2")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestAllStudentsGameStats(t *testing.T) {
	records := &fakeRecords{
		records: []models.PlayRecord{
			play("a", "s1", models.Game3, 0, 500, false, daysAgo(0, 9)),
			play("b", "s1", models.Game3, 0, 700, false, daysAgo(0, 10)),
			play("c", "s3", models.Game3, 0, 100, false, daysAgo(0, 9)),
		},
		failUser: "s2",
	}
	teacher := &models.User{ID: "t1", UserName: "T", Role: models.RoleTeacher}
	users := newFakeUsers(student("s1", "Ada"), student("s2", "Bo"), student("s3", "Cy"), teacher)

	out, err := newTestService(records, users, nil).AllStudentsGameStats(context.Background(), models.Game3)
	require.NoError(t, err)

	require.Len(t, out, 2, "s2 fails and is skipped, teachers are excluded")
	assert.Equal(t, "s1", out[0].Student.ID)
	assert.Equal(t, &games.ScoreStats{PlayCount: 2, HighestScore: 700}, out[0].Stats)
	assert.Equal(t, "Cy", out[1].Student.DisplayName)
}

func TestAllStudentsGameStatsErrors(t *testing.T) {
	_, err := newTestService(nil, nil, nil).AllStudentsGameStats(context.Background(), "Nope")
	assert.ErrorIs(t, err, games.ErrInvalidGameType)

	users := newFakeUsers()
	users.listErr = errBoom
	_, err = newTestService(nil, users, nil).AllStudentsGameStats(context.Background(), models.Game1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
