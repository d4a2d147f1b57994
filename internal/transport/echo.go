package transport

import (
	"sync"
	"time"
)

// EchoFilter lets a client ignore the reflection of its own update arriving
// back through the sync channel. After performing update U the client calls
// Remember(U); the next observation of U within the window is suppressed.
// This replaces wall-clock heuristics: suppression is keyed on the update
// id, so it never swallows someone else's change.
type EchoFilter struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	seen   map[string]time.Time
}

// NewEchoFilter creates a filter with the given suppression window.
func NewEchoFilter(window time.Duration) *EchoFilter {
	return &EchoFilter{
		window: window,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// SetClock overrides the time source. Intended for tests.
func (f *EchoFilter) SetClock(now func() time.Time) {
	f.now = now
}

// Remember records an update id this client just performed.
func (f *EchoFilter) Remember(updateID string) {
	if updateID == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	for id, at := range f.seen {
		if now.Sub(at) >= f.window {
			delete(f.seen, id)
		}
	}
	f.seen[updateID] = now
}

// Suppress reports whether the observed update id is this client's own
// recent update. A suppressed id is consumed: it is only skipped once.
func (f *EchoFilter) Suppress(updateID string) bool {
	if updateID == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.seen[updateID]
	if !ok {
		return false
	}
	delete(f.seen, updateID)
	return f.now().Sub(at) < f.window
}
