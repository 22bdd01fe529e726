package service

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamedash/internal/database"
	"gamedash/internal/logging"
	"gamedash/internal/models"
	"gamedash/internal/repository"
)

func openBackupDB(t *testing.T, name string) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), "../../migrations"))
	return db
}

func seedBackupDB(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()
	played := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

	users := repository.NewUserRepository(db)
	require.NoError(t, users.Create(ctx, &models.User{
		ID: "t1", Email: "teacher@example.com", UserName: "Ms Lin", Role: models.RoleTeacher,
		PasswordHash: sql.NullString{String: "hash", Valid: true},
	}))
	require.NoError(t, users.Create(ctx, &models.User{ID: "s1", Email: "kid@example.com", Role: models.RoleStudent}))

	records := repository.NewRecordRepository(db)
	require.NoError(t, records.Create(ctx, &models.PlayRecord{ID: "r1", UserID: "s1", GameType: models.Game1, Level: 2, Score: 45, IsCompleted: true, PlayedAt: played}))
	require.NoError(t, records.Create(ctx, &models.PlayRecord{ID: "r2", UserID: "gone", GameType: models.Game3, Score: 900, PlayedAt: played}))

	patterns := repository.NewErrorPatternRepository(db)
	require.NoError(t, patterns.Create(ctx, &models.ErrorPattern{
		ID:          "p1",
		UserID:      sql.NullString{String: "s1", Valid: true},
		GameID:      sql.NullString{String: string(models.Game2), Valid: true},
		LastUpdated: sql.NullTime{Time: played, Valid: true},
		Answers: map[string]models.ErrorAnswer{
			"a": {
				KnowledgePoint:  sql.NullString{String: "偏旁", Valid: true},
				WrongAnswer:     sql.NullString{String: "木", Valid: true},
				ErrorCount:      sql.NullInt64{Int64: 3, Valid: true},
				LastAttemptTime: sql.NullTime{Time: played, Valid: true},
			},
			"b": {WrongAnswer: sql.NullString{String: "水", Valid: true}},
		},
	}))
	require.NoError(t, patterns.Create(ctx, &models.ErrorPattern{ID: "p2"}))
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openBackupDB(t, "src.db")
	seedBackupDB(t, src)

	var buf bytes.Buffer
	exported, err := NewBackupService(src, logging.Discard()).Export(ctx, &buf)
	require.NoError(t, err)
	assert.Len(t, exported.Users, 2)
	assert.Len(t, exported.PlayRecords, 2)
	assert.Len(t, exported.ErrorPatterns, 2)
	assert.Len(t, exported.ErrorAnswers, 2)
	assert.Equal(t, "sqlite3", exported.DatabaseType)

	dst := openBackupDB(t, "dst.db")
	_, err = NewBackupService(dst, logging.Discard()).Import(ctx, &buf, false)
	require.NoError(t, err)

	teacher, err := repository.NewUserRepository(dst).GetByID(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, teacher)
	assert.Equal(t, "Ms Lin", teacher.UserName)
	assert.Equal(t, sql.NullString{String: "hash", Valid: true}, teacher.PasswordHash)

	rec, err := repository.NewRecordRepository(dst).GetByID(ctx, "r2")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "gone", rec.UserID, "orphan records survive")
	assert.Equal(t, 900, rec.Score)
	assert.Nil(t, rec.LastModified)

	found, err := repository.NewErrorPatternRepository(dst).Query(ctx, repository.ErrorPatternQuery{OrderBy: "id"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "p1", found[0].ID)
	require.Contains(t, found[0].Answers, "a")
	assert.Equal(t, int64(3), found[0].Answers["a"].ErrorCount.Int64)
	assert.False(t, found[0].Answers["b"].ErrorCount.Valid, "null counts stay null")
	assert.False(t, found[1].UserID.Valid)
}

func TestBackupImportClear(t *testing.T) {
	ctx := context.Background()
	db := openBackupDB(t, "clear.db")
	seedBackupDB(t, db)
	s := NewBackupService(db, logging.Discard())

	var buf bytes.Buffer
	_, err := s.Export(ctx, &buf)
	require.NoError(t, err)
	data := buf.Bytes()

	_, err = s.Import(ctx, bytes.NewReader(data), false)
	assert.Error(t, err, "merging duplicates violates primary keys")

	_, err = s.Import(ctx, bytes.NewReader(data), true)
	require.NoError(t, err)

	users, err := repository.NewUserRepository(db).ListByRole(ctx, "")
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestBackupImportRejectsUnknownVersion(t *testing.T) {
	db := openBackupDB(t, "version.db")
	s := NewBackupService(db, logging.Discard())

	_, err := s.Import(context.Background(), strings.NewReader(`{"version":"99"}`), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backup version")
}
