package species

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vetpath/vetpath/internal/domain/disease"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all registered custom species labels.
func (s *Service) List(ctx context.Context) ([]*CustomSpecies, error) {
	return s.repo.List(ctx)
}

// Register adds a custom species label to the registry. Labels must be
// non-empty and must not shadow a built-in species or an existing entry.
func (s *Service) Register(ctx context.Context, label string) (*CustomSpecies, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyLabel
	}
	if disease.IsBuiltinSpecies(label) {
		return nil, fmt.Errorf("%q is a built-in species: %w", label, ErrDuplicate)
	}

	cs := &CustomSpecies{Label: label}
	if err := s.repo.Create(ctx, cs); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, fmt.Errorf("%q: %w", label, ErrDuplicate)
		}
		return nil, fmt.Errorf("register species: %w", err)
	}
	return cs, nil
}

// IsKnown reports whether name is a built-in species or a registered
// custom label.
func (s *Service) IsKnown(ctx context.Context, name string) (bool, error) {
	if disease.IsBuiltinSpecies(name) {
		return true, nil
	}
	_, err := s.repo.GetByLabel(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
