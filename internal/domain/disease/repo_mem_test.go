package disease

import (
	"context"
	"sort"
	"sync"
)

// memRepo is an in-memory Repository for tests.
type memRepo struct {
	mu       sync.Mutex
	diseases map[string]*Disease
}

func newMemRepo() *memRepo {
	return &memRepo{diseases: make(map[string]*Disease)}
}

func (m *memRepo) List(ctx context.Context) ([]*Disease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Disease, 0, len(m.diseases))
	for _, d := range m.diseases {
		cp := *d
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*Disease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.diseases[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memRepo) Upsert(ctx context.Context, d *Disease) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *d
	m.diseases[d.ID] = &cp
	return nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.diseases[id]; !ok {
		return ErrNotFound
	}
	delete(m.diseases, id)
	return nil
}

func (m *memRepo) IncrementSearchCount(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.diseases[id]
	if !ok {
		return 0, ErrNotFound
	}
	d.SearchCount++
	return d.SearchCount, nil
}
