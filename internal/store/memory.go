package store

import (
	"fmt"
	"sync"
	"time"
)

const maxIDAttempts = 100

// MemoryStore keeps every session in a map guarded by a store-level mutex,
// with a per-session mutex serializing the read/compare/write cycle so
// long-running callers on one session never block another.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	newID func() string
	now   func() time.Time
}

type entry struct {
	mu      sync.Mutex
	session *Session
}

// NewMemoryStore creates an empty store. newID generates candidate session
// ids; collisions are retried.
func NewMemoryStore(newID func() string) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*entry),
		newID:    newID,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.now = now
}

// Create allocates a fresh session at version 0 with an empty queue.
func (m *MemoryStore) Create(name string, sharedQueue bool) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < maxIDAttempts; i++ {
		id := m.newID()
		if _, taken := m.sessions[id]; taken {
			continue
		}
		s := &Session{
			ID:          id,
			Name:        name,
			Queue:       []Song{},
			SharedQueue: sharedQueue,
			LastUpdate:  m.now(),
		}
		m.sessions[id] = &entry{session: s}
		return s.Clone(), nil
	}
	return nil, fmt.Errorf("failed to allocate a unique session id after %d attempts", maxIDAttempts)
}

func (m *MemoryStore) lookup(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Get returns a snapshot of the session.
func (m *MemoryStore) Get(id string) (*Session, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

// CompareAndSwap applies mutate only if the stored version equals
// expectedVersion. On success the stored state carries
// version = expectedVersion + 1 and a fresh LastUpdate. On mismatch it
// returns a ConflictError carrying the stored version; the session is left
// unchanged either way when mutate fails.
func (m *MemoryStore) CompareAndSwap(id string, expectedVersion int64, mutate func(*Session) error) (*Session, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Version != expectedVersion {
		return nil, &ConflictError{Current: e.session.Version}
	}

	next := e.session.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.Version = expectedVersion + 1
	next.LastUpdate = m.now()
	e.session = next
	return next.Clone(), nil
}

// Apply runs mutate under the session lock and commits with the next
// version, without a version precondition. Used for system transitions
// where the caller has no version to present. Mutate may return ErrNoChange
// to leave the session (and its version) untouched.
func (m *MemoryStore) Apply(id string, mutate func(*Session) error) (*Session, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.session.Clone()
	if err := mutate(next); err != nil {
		if err == ErrNoChange {
			return e.session.Clone(), nil
		}
		return nil, err
	}
	next.Version = e.session.Version + 1
	next.LastUpdate = m.now()
	e.session = next
	return next.Clone(), nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// IDs returns the ids of all stored sessions.
func (m *MemoryStore) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}
