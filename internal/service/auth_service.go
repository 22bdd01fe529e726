package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gamedash/internal/models"
	"gamedash/internal/security"
)

// ErrForbidden is returned when a valid account may not use the dashboard
var ErrForbidden = errors.New("account may not access the dashboard")

// Session is a signed-in staff user
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AuthService handles staff sign-in
type AuthService struct {
	users  UserStore
	tokens *security.TokenIssuer
	logger *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens *security.TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger.With("component", "auth"),
	}
}

// Login authenticates a staff user and issues a bearer token
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.PasswordHash.Valid {
		return nil, ErrInvalidCredentials
	}
	if !security.CheckPassword(password, user.PasswordHash.String) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsStaff() {
		s.logger.Warn("non-staff login refused", "user_id", user.ID, "role", user.Role)
		return nil, ErrForbidden
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a bearer token to its user. The user is reloaded so
// role changes and deletions take effect before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, security.ErrInvalidToken
	}
	if !user.IsStaff() {
		return nil, ErrForbidden
	}
	return user, nil
}
