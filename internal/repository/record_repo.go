package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gamedash/internal/database"
	"gamedash/internal/models"
)

const recordColumns = `id, user_id, game_id, level, score, is_completed, played_at, last_modified`

// RecordRepository handles database operations for play records
type RecordRepository struct {
	db database.DBTX
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db database.DBTX) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create inserts a play record, assigning an ID when it has none
func (r *RecordRepository) Create(ctx context.Context, rec *models.PlayRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.PlayedAt = rec.PlayedAt.UTC()

	query := `
		INSERT INTO play_records (id, user_id, game_id, level, score, is_completed, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, string(rec.GameType), rec.Level, rec.Score, rec.IsCompleted, rec.PlayedAt)
	if err != nil {
		return fmt.Errorf("failed to create play record: %w", err)
	}
	return nil
}

// GetByID retrieves a play record, returning nil when it does not exist
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*models.PlayRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM play_records WHERE id = ?`

	rec := &models.PlayRecord{}
	err := r.db.GetContext(ctx, rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get play record: %w", err)
	}
	return rec, nil
}

// ListByGame returns every record of a game, newest first
func (r *RecordRepository) ListByGame(ctx context.Context, gameType models.GameType) ([]models.PlayRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM play_records
		WHERE game_id = ?
		ORDER BY played_at DESC, id
	`
	records := []models.PlayRecord{}
	if err := r.db.SelectContext(ctx, &records, query, string(gameType)); err != nil {
		return nil, fmt.Errorf("failed to list play records: %w", err)
	}
	return records, nil
}

// ListByUserAndGame returns one student's records for a game, newest first
func (r *RecordRepository) ListByUserAndGame(ctx context.Context, userID string, gameType models.GameType) ([]models.PlayRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM play_records
		WHERE user_id = ? AND game_id = ?
		ORDER BY played_at DESC, id
	`
	records := []models.PlayRecord{}
	if err := r.db.SelectContext(ctx, &records, query, userID, string(gameType)); err != nil {
		return nil, fmt.Errorf("failed to list student play records: %w", err)
	}
	return records, nil
}

// Update applies a correction and stamps last_modified. It reports whether
// the record existed.
func (r *RecordRepository) Update(ctx context.Context, id string, patch models.RecordPatch, modifiedAt time.Time) (bool, error) {
	sets := []string{"last_modified = ?"}
	args := []any{modifiedAt.UTC()}

	if patch.Level != nil {
		sets = append(sets, "level = ?")
		args = append(args, *patch.Level)
	}
	if patch.Score != nil {
		sets = append(sets, "score = ?")
		args = append(args, *patch.Score)
	}
	if patch.IsCompleted != nil {
		sets = append(sets, "is_completed = ?")
		args = append(args, *patch.IsCompleted)
	}
	args = append(args, id)

	query := `UPDATE play_records SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update play record: %w", err)
	}
	return affected(result)
}

// Delete removes a play record. It reports whether the record existed.
func (r *RecordRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM play_records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete play record: %w", err)
	}
	return affected(result)
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
