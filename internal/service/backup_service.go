package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gamedash/internal/database"
	"gamedash/internal/models"
)

const backupVersion = "1"

// BackupData is the complete database backup document
type BackupData struct {
	Version       string               `json:"version"`
	ExportedAt    time.Time            `json:"exported_at"`
	DatabaseType  string               `json:"database_type"`
	Users         []UserBackup         `json:"users"`
	PlayRecords   []models.PlayRecord  `json:"play_records"`
	ErrorPatterns []ErrorPatternBackup `json:"error_patterns"`
	ErrorAnswers  []ErrorAnswerBackup  `json:"error_answers"`
}

// UserBackup is a user row including its password hash
type UserBackup struct {
	ID           string      `db:"id" json:"id"`
	Email        string      `db:"email" json:"email"`
	UserName     string      `db:"user_name" json:"user_name"`
	Role         models.Role `db:"role" json:"role"`
	XP           int         `db:"xp" json:"xp"`
	PasswordHash *string     `db:"password_hash" json:"password_hash"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// ErrorPatternBackup is an error pattern row. Null references stay null.
type ErrorPatternBackup struct {
	ID          string     `db:"id" json:"id"`
	UserID      *string    `db:"user_id" json:"user_id"`
	GameID      *string    `db:"game_id" json:"game_id"`
	LastUpdated *time.Time `db:"last_updated" json:"last_updated"`
}

// ErrorAnswerBackup is one answer of an error pattern
type ErrorAnswerBackup struct {
	PatternID       string     `db:"pattern_id" json:"pattern_id"`
	AnswerKey       string     `db:"answer_key" json:"answer_key"`
	KnowledgePoint  *string    `db:"knowledge_point" json:"knowledge_point"`
	WrongAnswer     *string    `db:"wrong_answer" json:"wrong_answer"`
	ErrorCount      *int64     `db:"error_count" json:"error_count"`
	LastAttemptTime *time.Time `db:"last_attempt_time" json:"last_attempt_time"`
}

// clearOrder lists tables children first
var clearOrder = []string{"error_answers", "error_patterns", "play_records", "users"}

// BackupService exports and restores the dashboard database as JSON
type BackupService struct {
	db     *database.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *slog.Logger) *BackupService {
	return &BackupService{db: db, logger: logger.With("component", "backup"), now: time.Now}
}

// Export writes every table to w as one JSON document
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   s.now().UTC(),
		DatabaseType: s.db.GetDialect().DriverName(),
	}

	queries := []struct {
		table string
		dest  any
		query string
	}{
		{"users", &backup.Users, "SELECT id, email, user_name, role, xp, password_hash, created_at, updated_at FROM users ORDER BY id"},
		{"play_records", &backup.PlayRecords, "SELECT id, user_id, game_id, level, score, is_completed, played_at, last_modified FROM play_records ORDER BY id"},
		{"error_patterns", &backup.ErrorPatterns, "SELECT id, user_id, game_id, last_updated FROM error_patterns ORDER BY id"},
		{"error_answers", &backup.ErrorAnswers, "SELECT pattern_id, answer_key, knowledge_point, wrong_answer, error_count, last_attempt_time FROM error_answers ORDER BY pattern_id, answer_key"},
	}
	for _, q := range queries {
		if err := s.db.SelectContext(ctx, q.dest, q.query); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", q.table, err)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("backup exported",
		"users", len(backup.Users),
		"play_records", len(backup.PlayRecords),
		"error_patterns", len(backup.ErrorPatterns),
	)
	return backup, nil
}

// Import restores a backup in one transaction. With clear set, existing
// rows are deleted first; otherwise rows are added to what is there.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if clear {
			for _, table := range clearOrder {
				if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
					return fmt.Errorf("failed to clear %s: %w", table, err)
				}
			}
		}

		for _, u := range backup.Users {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO users (id, email, user_name, role, xp, password_hash, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				u.ID, u.Email, u.UserName, u.Role, u.XP, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to import user %s: %w", u.ID, err)
			}
		}
		for _, rec := range backup.PlayRecords {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO play_records (id, user_id, game_id, level, score, is_completed, played_at, last_modified)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, rec.UserID, rec.GameType, rec.Level, rec.Score, rec.IsCompleted, rec.PlayedAt, rec.LastModified,
			); err != nil {
				return fmt.Errorf("failed to import play record %s: %w", rec.ID, err)
			}
		}
		for _, p := range backup.ErrorPatterns {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO error_patterns (id, user_id, game_id, last_updated) VALUES (?, ?, ?, ?)",
				p.ID, p.UserID, p.GameID, p.LastUpdated,
			); err != nil {
				return fmt.Errorf("failed to import error pattern %s: %w", p.ID, err)
			}
		}
		for _, a := range backup.ErrorAnswers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO error_answers (pattern_id, answer_key, knowledge_point, wrong_answer, error_count, last_attempt_time)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				a.PatternID, a.AnswerKey, a.KnowledgePoint, a.WrongAnswer, a.ErrorCount, a.LastAttemptTime,
			); err != nil {
				return fmt.Errorf("failed to import error answer %s/%s: %w", a.PatternID, a.AnswerKey, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("backup imported",
		"users", len(backup.Users),
		"play_records", len(backup.PlayRecords),
		"error_patterns", len(backup.ErrorPatterns),
		"cleared", clear,
	)
	return &backup, nil
}
