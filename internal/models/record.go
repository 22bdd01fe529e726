package models

import (
	"time"
)

// GameType identifies a game on the platform
type GameType string

const (
	Game1 GameType = "Game1"
	Game2 GameType = "Game2"
	Game3 GameType = "Game3"
)

// PlayRecord is one attempt at one game level. Rows are written by the game
// clients; the dashboard only corrects level/score/completion or deletes them.
type PlayRecord struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"userId"`
	GameType     GameType   `db:"game_id" json:"gameType"`
	Level        int        `db:"level" json:"level"`
	Score        int        `db:"score" json:"score"`
	IsCompleted  bool       `db:"is_completed" json:"isCompleted"`
	PlayedAt     time.Time  `db:"played_at" json:"playedAt"`
	LastModified *time.Time `db:"last_modified" json:"lastModified,omitempty"`
}

// RecordPatch holds an admin correction; nil fields are left unchanged
type RecordPatch struct {
	Level       *int  `json:"level" validate:"omitempty,gte=0"`
	Score       *int  `json:"score" validate:"omitempty,gte=0"`
	IsCompleted *bool `json:"isCompleted"`
}

// Empty reports whether the patch changes nothing
func (p RecordPatch) Empty() bool {
	return p.Level == nil && p.Score == nil && p.IsCompleted == nil
}
