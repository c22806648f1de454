package disease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*Disease, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Disease, error) {
	return s.repo.GetByID(ctx, id)
}

// Save validates the record and writes it whole. An empty id gets a fresh
// UUID. A zero CreatedAt keeps the stored creation time when the record
// already exists, otherwise the current time; the stamp is set once and
// never moves on update. The stored record is returned.
func (s *Service) Save(ctx context.Context, d *Disease) (*Disease, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt == 0 {
		d.CreatedAt = time.Now().UnixMilli()
		if existing, err := s.repo.GetByID(ctx, d.ID); err == nil {
			d.CreatedAt = existing.CreatedAt
		}
	}

	if err := s.repo.Upsert(ctx, d); err != nil {
		return nil, fmt.Errorf("save disease: %w", err)
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// RecordView applies exactly one +1 to the view counter.
func (s *Service) RecordView(ctx context.Context, id string) (int, error) {
	return s.repo.IncrementSearchCount(ctx, id)
}

// Validate checks the publish invariants: a name, at least one host,
// distinct species per disease, known treatment types.
func Validate(d *Disease) error {
	if d.Name == "" {
		return fmt.Errorf("disease name is required")
	}
	if len(d.Hosts) == 0 {
		return fmt.Errorf("at least one host species is required")
	}

	seen := make(map[string]bool, len(d.Hosts))
	for _, h := range d.Hosts {
		if h.AnimalName == "" {
			return fmt.Errorf("host species name is required")
		}
		if seen[h.AnimalName] {
			return fmt.Errorf("duplicate host species: %s", h.AnimalName)
		}
		seen[h.AnimalName] = true

		for _, t := range h.Treatments {
			if !ValidTreatmentType(t.Type) {
				return fmt.Errorf("invalid treatment type: %s", t.Type)
			}
		}
	}
	return nil
}
