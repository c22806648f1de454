package species

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memRepo struct {
	mu     sync.Mutex
	byLbl  map[string]*CustomSpecies
}

func newMemRepo() *memRepo {
	return &memRepo{byLbl: make(map[string]*CustomSpecies)}
}

func (m *memRepo) List(ctx context.Context) ([]*CustomSpecies, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*CustomSpecies, 0, len(m.byLbl))
	for _, s := range m.byLbl {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (m *memRepo) GetByLabel(ctx context.Context, label string) (*CustomSpecies, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byLbl[label]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) Create(ctx context.Context, s *CustomSpecies) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byLbl[s.Label]; ok {
		return ErrDuplicate
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	cp := *s
	m.byLbl[s.Label] = &cp
	return nil
}

func TestRegister(t *testing.T) {
	svc := NewService(newMemRepo())

	cs, err := svc.Register(context.Background(), "Camelid")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if cs.Label != "Camelid" {
		t.Errorf("unexpected label: %s", cs.Label)
	}
	if cs.ID == uuid.Nil {
		t.Error("expected assigned id")
	}
}

func TestRegister_TrimsWhitespace(t *testing.T) {
	svc := NewService(newMemRepo())

	cs, err := svc.Register(context.Background(), "  Camelid  ")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if cs.Label != "Camelid" {
		t.Errorf("expected trimmed label, got %q", cs.Label)
	}
}

func TestRegister_RejectsEmpty(t *testing.T) {
	svc := NewService(newMemRepo())

	if _, err := svc.Register(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank label")
	}
}

func TestRegister_RejectsBuiltin(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.Register(context.Background(), "Bovine")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for built-in species, got %v", err)
	}
}

func TestRegister_RejectsDuplicate(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Camelid"); err != nil {
		t.Fatalf("first Register() error: %v", err)
	}
	_, err := svc.Register(ctx, "Camelid")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestIsKnown(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Camelid"); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	cases := []struct {
		name string
		want bool
	}{
		{"Bovine", true},
		{"Camelid", true},
		{"Dragon", false},
	}
	for _, tc := range cases {
		got, err := svc.IsKnown(ctx, tc.name)
		if err != nil {
			t.Fatalf("IsKnown(%s) error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("IsKnown(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
