package report

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable wraps failures of the primary store queries
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrNotFound is returned when a requested student does not exist
	ErrNotFound = errors.New("not found")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
