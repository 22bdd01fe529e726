package report

import (
	"context"
	"log/slog"

	"gamedash/internal/games"
	"gamedash/internal/models"
)

// Record is a play record tagged with its game and owner's display name
type Record struct {
	models.PlayRecord
	GameName string `json:"gameName"`
	UserName string `json:"userName"`
}

// Fetcher loads a game's records and resolves their owners
type Fetcher struct {
	records RecordSource
	users   UserLookup
	logger  *slog.Logger
}

// NewFetcher creates a fetcher
func NewFetcher(records RecordSource, users UserLookup, logger *slog.Logger) *Fetcher {
	return &Fetcher{records: records, users: users, logger: logger}
}

// FetchRecords returns every record of gameType, newest first. Owners that
// no longer exist, or cannot be looked up, resolve to models.UnknownUserName.
func (f *Fetcher) FetchRecords(ctx context.Context, gameType models.GameType) ([]Record, error) {
	d, err := games.Lookup(gameType)
	if err != nil {
		return nil, err
	}

	rows, err := f.records.ListByGame(ctx, gameType)
	if err != nil {
		return nil, unavailable("fetch records", err)
	}

	names := make(map[string]string)
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		name, ok := names[row.UserID]
		if !ok {
			name = f.resolveName(ctx, row.UserID)
			names[row.UserID] = name
		}
		out = append(out, Record{PlayRecord: row, GameName: d.Name, UserName: name})
	}
	return out, nil
}

func (f *Fetcher) resolveName(ctx context.Context, userID string) string {
	if userID == "" {
		return models.UnknownUserName
	}
	user, err := f.users.GetByID(ctx, userID)
	if err != nil {
		f.logger.Warn("user lookup failed", "user_id", userID, "error", err)
		return models.UnknownUserName
	}
	return user.DisplayName()
}
