package species

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("custom species not found")
	ErrDuplicate  = errors.New("species label already exists")
	ErrEmptyLabel = errors.New("species label is required")
)

// Repository persists the custom species registry.
type Repository interface {
	List(ctx context.Context) ([]*CustomSpecies, error)
	GetByLabel(ctx context.Context, label string) (*CustomSpecies, error)
	Create(ctx context.Context, s *CustomSpecies) error
}
