package models

import (
	"database/sql"
)

// ErrorPattern is one student's wrong-answer tally document for one game.
// Answers is keyed by the answer key the game client chose. Every reference
// is nullable because legacy documents may lack them.
type ErrorPattern struct {
	ID          string                 `db:"id"`
	UserID      sql.NullString         `db:"user_id"`
	GameID      sql.NullString         `db:"game_id"`
	LastUpdated sql.NullTime           `db:"last_updated"`
	Answers     map[string]ErrorAnswer `db:"-"`
}

// ErrorAnswer counts how often a wrong answer was given for a knowledge point
type ErrorAnswer struct {
	KnowledgePoint  sql.NullString `db:"knowledge_point"`
	WrongAnswer     sql.NullString `db:"wrong_answer"`
	ErrorCount      sql.NullInt64  `db:"error_count"`
	LastAttemptTime sql.NullTime   `db:"last_attempt_time"`
}
