// Package presence tracks which clients are currently live in each session
// via heartbeats. The connected-client count is always derived from this
// tracker, never stored on the session, so it cannot drift.
package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Tracker maps sessionID -> clientID -> last heartbeat time. A client is
// counted while its last heartbeat is within the timeout window, evaluated
// lazily by Count and reaped by the periodic Sweep.
//
// The timeout should exceed the advertised heartbeat interval by a safety
// factor (5× by default elsewhere) so transient network gaps don't flap the
// connected count.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]map[string]time.Time
	timeout  time.Duration
	now      func() time.Time

	// onChange, when set, is invoked (outside the lock) after a sweep or an
	// explicit leave shrinks a session's live count, and after a first
	// heartbeat grows it. Used to push client-count updates.
	onChange func(sessionID string, count int)
}

// NewTracker creates a tracker with the given liveness timeout.
func NewTracker(timeout time.Duration) *Tracker {
	return &Tracker{
		sessions: make(map[string]map[string]time.Time),
		timeout:  timeout,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// OnChange registers the client-count change callback.
func (t *Tracker) OnChange(fn func(sessionID string, count int)) {
	t.onChange = fn
}

// Heartbeat registers or refreshes a client. The first heartbeat for an
// unseen clientID counts as an implicit join; the return value reports
// whether this call was one.
func (t *Tracker) Heartbeat(sessionID, clientID string) bool {
	if clientID == "" {
		return false
	}

	t.mu.Lock()
	clients := t.sessions[sessionID]
	if clients == nil {
		clients = make(map[string]time.Time)
		t.sessions[sessionID] = clients
	}
	_, seen := clients[clientID]
	clients[clientID] = t.now()
	count := t.countLocked(sessionID)
	t.mu.Unlock()

	if !seen && t.onChange != nil {
		t.onChange(sessionID, count)
	}
	return !seen
}

// Leave removes a client explicitly (e.g. on page unload).
func (t *Tracker) Leave(sessionID, clientID string) {
	t.mu.Lock()
	clients, ok := t.sessions[sessionID]
	if ok {
		if _, present := clients[clientID]; !present {
			ok = false
		}
		delete(clients, clientID)
		if len(clients) == 0 {
			delete(t.sessions, sessionID)
		}
	}
	count := t.countLocked(sessionID)
	t.mu.Unlock()

	if ok && t.onChange != nil {
		t.onChange(sessionID, count)
	}
}

// Alive reports whether the client has heartbeat within the timeout window.
func (t *Tracker) Alive(sessionID, clientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	clients, ok := t.sessions[sessionID]
	if !ok {
		return false
	}
	last, ok := clients[clientID]
	if !ok {
		return false
	}
	return t.now().Sub(last) < t.timeout
}

// Count returns the number of clients whose last heartbeat is within the
// timeout window. Stale entries are not removed here; Sweep does that.
func (t *Tracker) Count(sessionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.countLocked(sessionID)
}

func (t *Tracker) countLocked(sessionID string) int {
	now := t.now()
	n := 0
	for _, last := range t.sessions[sessionID] {
		if now.Sub(last) < t.timeout {
			n++
		}
	}
	return n
}

// Sweep removes entries older than the timeout and notifies onChange for
// every session whose entry set shrank.
func (t *Tracker) Sweep() {
	type change struct {
		sessionID string
		count     int
	}
	var changed []change

	t.mu.Lock()
	now := t.now()
	for sessionID, clients := range t.sessions {
		removed := 0
		for clientID, last := range clients {
			if now.Sub(last) >= t.timeout {
				delete(clients, clientID)
				removed++
			}
		}
		if removed > 0 {
			slog.Debug("swept stale clients",
				slog.String("session_id", sessionID),
				slog.Int("removed", removed),
				slog.Int("remaining", len(clients)))
			changed = append(changed, change{sessionID, len(clients)})
		}
		if len(clients) == 0 {
			delete(t.sessions, sessionID)
		}
	}
	t.mu.Unlock()

	if t.onChange != nil {
		for _, c := range changed {
			t.onChange(c.sessionID, c.count)
		}
	}
}

// Run sweeps on the given interval until the context is cancelled.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}
