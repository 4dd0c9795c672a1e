// Package store persists users and consumption records. SQL is the
// production implementation; Memory is a goroutine-safe fake with the same
// semantics for tests.
package store

import (
	"errors"
	"fmt"

	"pintlog-backend-go/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("already exists")
	ErrUnavailable = errors.New("storage unavailable")
	// ErrInvalid rejects writes that would break a record invariant, such
	// as a negative delta.
	ErrInvalid = errors.New("invalid record")
)

// checkDelta enforces that UpsertAdd only ever increments.
func checkDelta(delta models.Counts) error {
	if delta.Pints < 0 || delta.HalfPints < 0 || delta.Liters33 < 0 {
		return fmt.Errorf("%w: negative delta %+v", ErrInvalid, delta)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
