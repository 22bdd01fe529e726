package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gamedash/internal/database"
	"gamedash/internal/models"
)

// ErrorPatternQuery filters error pattern documents. Zero values mean no filter.
type ErrorPatternQuery struct {
	UserID string
	GameID string
	// Start and End bound the answers' last_attempt_time, inclusive
	Start      *time.Time
	End        *time.Time
	OrderBy    string
	Descending bool
	Limit      int
}

// orderColumns whitelists the fields callers may sort by
var orderColumns = map[string]string{
	"":            "p.id",
	"id":          "p.id",
	"lastUpdated": "p.last_updated",
	"gameId":      "p.game_id",
	"userId":      "p.user_id",
}

// IsOrderField reports whether patterns can be sorted by field
func IsOrderField(field string) bool {
	_, ok := orderColumns[field]
	return ok
}

type answerRow struct {
	PatternID string `db:"pattern_id"`
	AnswerKey string `db:"answer_key"`
	models.ErrorAnswer
}

// ErrorPatternRepository reads and writes error pattern documents together
// with their embedded answers
type ErrorPatternRepository struct {
	db *database.DB
}

// NewErrorPatternRepository creates a new error pattern repository
func NewErrorPatternRepository(db *database.DB) *ErrorPatternRepository {
	return &ErrorPatternRepository{db: db}
}

// Create stores a pattern and its answers in one transaction
func (r *ErrorPatternRepository) Create(ctx context.Context, p *models.ErrorPattern) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO error_patterns (id, user_id, game_id, last_updated) VALUES (?, ?, ?, ?)`,
			p.ID, p.UserID, p.GameID, utcNullTime(p.LastUpdated))
		if err != nil {
			return fmt.Errorf("failed to create error pattern: %w", err)
		}

		for key, a := range p.Answers {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO error_answers (pattern_id, answer_key, knowledge_point, wrong_answer, error_count, last_attempt_time)
				VALUES (?, ?, ?, ?, ?, ?)
			`, p.ID, key, a.KnowledgePoint, a.WrongAnswer, a.ErrorCount, utcNullTime(a.LastAttemptTime))
			if err != nil {
				return fmt.Errorf("failed to create error answer %q: %w", key, err)
			}
		}
		return nil
	})
}

// Query returns matching patterns with their answers attached
func (r *ErrorPatternRepository) Query(ctx context.Context, q ErrorPatternQuery) ([]models.ErrorPattern, error) {
	orderCol, ok := orderColumns[q.OrderBy]
	if !ok {
		return nil, fmt.Errorf("unsupported order field %q", q.OrderBy)
	}

	var where []string
	var args []any
	if q.UserID != "" {
		where = append(where, "p.user_id = ?")
		args = append(args, q.UserID)
	}
	if q.GameID != "" {
		where = append(where, "p.game_id = ?")
		args = append(args, q.GameID)
	}
	if q.Start != nil || q.End != nil {
		cond := []string{"a.pattern_id = p.id"}
		if q.Start != nil {
			cond = append(cond, "a.last_attempt_time >= ?")
			args = append(args, q.Start.UTC())
		}
		if q.End != nil {
			cond = append(cond, "a.last_attempt_time <= ?")
			args = append(args, q.End.UTC())
		}
		where = append(where, "EXISTS (SELECT 1 FROM error_answers a WHERE "+strings.Join(cond, " AND ")+")")
	}

	query := `SELECT p.id, p.user_id, p.game_id, p.last_updated FROM error_patterns p`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderCol
	if q.Descending {
		query += " DESC"
	}
	if orderCol != "p.id" {
		query += ", p.id"
	}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	patterns := []models.ErrorPattern{}
	if err := r.db.SelectContext(ctx, &patterns, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query error patterns: %w", err)
	}
	if len(patterns) == 0 {
		return patterns, nil
	}

	if err := r.attachAnswers(ctx, patterns); err != nil {
		return nil, err
	}
	return patterns, nil
}

func (r *ErrorPatternRepository) attachAnswers(ctx context.Context, patterns []models.ErrorPattern) error {
	ids := make([]string, len(patterns))
	index := make(map[string]int, len(patterns))
	for i, p := range patterns {
		ids[i] = p.ID
		index[p.ID] = i
	}

	query, args, err := sqlx.In(`
		SELECT pattern_id, answer_key, knowledge_point, wrong_answer, error_count, last_attempt_time
		FROM error_answers
		WHERE pattern_id IN (?)
		ORDER BY pattern_id, answer_key
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to build answer query: %w", err)
	}

	var rows []answerRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("failed to load error answers: %w", err)
	}

	for _, row := range rows {
		p := &patterns[index[row.PatternID]]
		if p.Answers == nil {
			p.Answers = make(map[string]models.ErrorAnswer)
		}
		p.Answers[row.AnswerKey] = row.ErrorAnswer
	}
	return nil
}

func utcNullTime(t sql.NullTime) sql.NullTime {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}
