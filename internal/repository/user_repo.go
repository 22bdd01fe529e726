package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gamedash/internal/database"
	"gamedash/internal/models"
)

const userColumns = `id, email, user_name, role, xp, password_hash, created_at, updated_at`

// UserRepository handles database operations for users of every role
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. ID and timestamps are filled in when unset.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, user_name, role, xp, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.UserName, string(u.Role), u.XP, u.PasswordHash, u.CreatedAt.UTC(), u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID, returning nil when it does not exist
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email address, returning nil when absent
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListByRole returns users with the given role ordered by name, or every
// user when role is empty
func (r *UserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	users := []models.User{}
	var err error
	if role == "" {
		err = r.db.SelectContext(ctx, &users,
			`SELECT `+userColumns+` FROM users ORDER BY user_name, email`)
	} else {
		err = r.db.SelectContext(ctx, &users,
			`SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY user_name, email`, string(role))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateProfile changes a user's email and name. It reports whether the user existed.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, email, userName string) (bool, error) {
	query := `UPDATE users SET email = ?, user_name = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, email, userName, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update user: %w", err)
	}
	return affected(result)
}

// UpdateRole changes a user's role. It reports whether the user existed.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.Role) (bool, error) {
	query := `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, string(role), time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update user role: %w", err)
	}
	return affected(result)
}

// Delete removes a user. Play records and error patterns are kept.
func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return affected(result)
}
