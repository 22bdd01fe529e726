package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gamedash/internal/service"
)

// LoginService signs staff users in
type LoginService interface {
	Login(ctx context.Context, email, password string) (*service.Session, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth   LoginService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth LoginService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Info("failed login", "email", req.Email)
		}
		respondWithServiceError(w, h.logger, "login failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, GetUserFromContext(r.Context()))
}
