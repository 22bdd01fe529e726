package service

import (
	"errors"

	"gamedash/internal/report"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotFound is shared with the report package so callers match one sentinel
	ErrNotFound = report.ErrNotFound
)

// MutationResult reports the outcome of an admin edit or delete
type MutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(message string) MutationResult {
	return MutationResult{Success: true, Message: message}
}

func failed(message string) MutationResult {
	return MutationResult{Success: false, Message: message}
}
