package report

import (
	"context"

	"gamedash/internal/models"
	"gamedash/internal/repository"
)

// RecordSource reads play records
type RecordSource interface {
	ListByGame(ctx context.Context, gameType models.GameType) ([]models.PlayRecord, error)
	ListByUserAndGame(ctx context.Context, userID string, gameType models.GameType) ([]models.PlayRecord, error)
}

// UserLookup resolves user references. GetByID returns nil for a missing user.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// ErrorPatternSource reads error pattern documents
type ErrorPatternSource interface {
	Query(ctx context.Context, q repository.ErrorPatternQuery) ([]models.ErrorPattern, error)
}
