package disease

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a disease id does not exist.
var ErrNotFound = errors.New("disease not found")

// Repository persists disease monographs. Records are written whole; there
// are no partial updates.
type Repository interface {
	// List returns all diseases, newest first.
	List(ctx context.Context) ([]*Disease, error)
	GetByID(ctx context.Context, id string) (*Disease, error)
	// Upsert inserts the record or replaces the existing one with the
	// same id.
	Upsert(ctx context.Context, d *Disease) error
	Delete(ctx context.Context, id string) error
	// IncrementSearchCount adds exactly one to the view counter and
	// returns the new value.
	IncrementSearchCount(ctx context.Context, id string) (int, error)
}
