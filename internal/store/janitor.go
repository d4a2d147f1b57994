package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// PresenceCounter reports how many clients are currently live in a session.
// Satisfied by presence.Tracker.
type PresenceCounter interface {
	Count(sessionID string) int
}

// Janitor evicts sessions that have had zero live clients for longer than
// the TTL. A session is never evicted the first time it is seen empty; the
// sweep records when emptiness was first observed and deletes on a later
// sweep once the TTL has elapsed.
type Janitor struct {
	store    *MemoryStore
	presence PresenceCounter
	ttl      time.Duration

	mu         sync.Mutex
	emptySince map[string]time.Time
	now        func() time.Time
}

// NewJanitor creates a janitor over the given store and presence source.
func NewJanitor(s *MemoryStore, p PresenceCounter, ttl time.Duration) *Janitor {
	return &Janitor{
		store:      s,
		presence:   p,
		ttl:        ttl,
		emptySince: make(map[string]time.Time),
		now:        time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (j *Janitor) SetClock(now func() time.Time) {
	j.now = now
}

// Sweep runs one eviction pass and returns the number of deleted sessions.
func (j *Janitor) Sweep() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	live := make(map[string]bool)
	removed := 0

	for _, id := range j.store.IDs() {
		live[id] = true
		if j.presence.Count(id) > 0 {
			delete(j.emptySince, id)
			continue
		}
		since, ok := j.emptySince[id]
		if !ok {
			j.emptySince[id] = now
			continue
		}
		if now.Sub(since) >= j.ttl {
			j.store.Delete(id)
			delete(j.emptySince, id)
			removed++
			slog.Info("evicted idle session", slog.String("session_id", id))
		}
	}

	// Drop bookkeeping for sessions deleted by other means.
	for id := range j.emptySince {
		if !live[id] {
			delete(j.emptySince, id)
		}
	}

	return removed
}

// Run sweeps on the given interval until the context is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}
