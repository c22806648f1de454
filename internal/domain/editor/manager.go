package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetpath/vetpath/internal/domain/disease"
)

// DraftRef identifies a durable draft without its full snapshot.
type DraftRef struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftRepository is the durable side-channel for in-progress sessions.
// Snapshots are whole-state, last-write-wins.
type DraftRepository interface {
	Save(ctx context.Context, sessionID, name string, snapshot []byte) error
	Get(ctx context.Context, sessionID string) ([]byte, error)
	List(ctx context.Context) ([]DraftRef, error)
	Delete(ctx context.Context, sessionID string) error
}

// Manager owns the live editing sessions. Sessions live in memory;
// every mutation mirrors the whole session into the draft repository so
// a crash or reload can offer to restore unsaved work. Mirroring is
// best-effort: a failed write is logged, the edit itself still applies.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	drafts   DraftRepository
	diseases *disease.Service
	logger   zerolog.Logger
}

func NewManager(drafts DraftRepository, diseases *disease.Service, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		drafts:   drafts,
		diseases: diseases,
		logger:   logger,
	}
}

// Open starts a session for a new record.
func (m *Manager) Open(ctx context.Context) *Session {
	s := NewSession()
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.mirror(ctx, s)
	return s
}

// OpenFor starts a session pre-populated from an existing record.
func (m *Manager) OpenFor(ctx context.Context, diseaseID string) (*Session, error) {
	d, err := m.diseases.Get(ctx, diseaseID)
	if err != nil {
		return nil, err
	}
	s := SessionFrom(d)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.mirror(ctx, s)
	return s, nil
}

// Get returns the live session. Callers needing a consistent read
// while edits may be in flight should use View instead.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// View runs fn against the session under the manager lock without
// touching the draft side-channel. fn must not retain the session.
func (m *Manager) View(id string, fn func(s *Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	return fn(s)
}

// Mutate applies fn to the session under the manager lock and mirrors
// the resulting state to the draft side-channel.
func (m *Manager) Mutate(ctx context.Context, id string, fn func(s *Session) error) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if err := fn(s); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	s.UpdatedAt = time.Now()
	m.mu.Unlock()

	m.mirror(ctx, s)
	return s, nil
}

// Submit assembles the record, hands it to the registry exactly once,
// and clears the session and its draft on success.
func (m *Manager) Submit(ctx context.Context, id string) (*disease.Disease, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	d, err := s.Assemble()
	if err != nil {
		return nil, err
	}
	saved, err := m.diseases.Save(ctx, d)
	if err != nil {
		return nil, err
	}

	m.close(ctx, id)
	return saved, nil
}

// Discard drops the session and its draft without saving.
func (m *Manager) Discard(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	m.close(ctx, id)
	return nil
}

// Restore revives a session from its durable draft snapshot.
func (m *Manager) Restore(ctx context.Context, sessionID string) (*Session, error) {
	snapshot, err := m.drafts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(snapshot, &s); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", sessionID, err)
	}
	m.mu.Lock()
	m.sessions[s.ID] = &s
	m.mu.Unlock()
	return &s, nil
}

// ListDrafts returns the restorable drafts.
func (m *Manager) ListDrafts(ctx context.Context) ([]DraftRef, error) {
	return m.drafts.List(ctx)
}

func (m *Manager) close(ctx context.Context, id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	if err := m.drafts.Delete(ctx, id); err != nil {
		m.logger.Warn().Err(err).Str("session_id", id).Msg("failed to clear draft")
	}
}

func (m *Manager) mirror(ctx context.Context, s *Session) {
	m.mu.Lock()
	snapshot, err := json.Marshal(s)
	name := s.Name
	m.mu.Unlock()
	if err != nil {
		m.logger.Warn().Err(err).Str("session_id", s.ID).Msg("failed to encode draft")
		return
	}
	if err := m.drafts.Save(ctx, s.ID, name, snapshot); err != nil {
		m.logger.Warn().Err(err).Str("session_id", s.ID).Msg("failed to mirror draft")
	}
}
