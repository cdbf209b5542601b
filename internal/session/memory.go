package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memEntry struct {
	s    Session
	seen time.Time
}

// MemoryStore keeps sessions in process. Used when Redis is unavailable and
// in tests; entries expire after ttl of inactivity when ttl > 0. Reads count
// as activity.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]memEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]memEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(s.ID); ok {
		return fmt.Errorf("create session: id %s already exists", s.ID)
	}
	// Stored by value so callers cannot mutate the stored copy.
	m.sessions[s.ID] = memEntry{s: *s, seen: m.now()}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.seen = m.now()
	m.sessions[id] = e
	s := e.s
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	s.UpdatedAt = now.UTC()
	m.sessions[s.ID] = memEntry{s: *s, seen: now}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(id); !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// live returns the entry for id, dropping it if it has expired. m.mu is held.
func (m *MemoryStore) live(id uuid.UUID) (memEntry, bool) {
	e, ok := m.sessions[id]
	if !ok {
		return memEntry{}, false
	}
	if m.ttl > 0 && m.now().Sub(e.seen) > m.ttl {
		delete(m.sessions, id)
		return memEntry{}, false
	}
	return e, true
}
