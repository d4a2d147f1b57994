package transport

import (
	"context"

	"github.com/jamshare/backend/internal/presence"
	"github.com/jamshare/backend/internal/store"
)

// Snapshot is what a client observes: the session state plus the derived
// connected-client count.
type Snapshot struct {
	Session     *store.Session
	ClientCount int
}

// Change is one field-level notification. Snapshot is the state observed
// after the change.
type Change struct {
	Field    string
	Snapshot *Snapshot
}

// Fetcher reads the current snapshot of a session on behalf of a client.
// Fetching refreshes the client's presence, mirroring the HTTP GET surface.
type Fetcher interface {
	Fetch(ctx context.Context, sessionID, clientID string) (*Snapshot, error)
}

// Transport delivers state changes for one session to a consumer until the
// context is cancelled. Both implementations provide the same contract:
// at-least-once delivery with per-field change detection, suppressing the
// client's own echoes when an EchoFilter is attached.
type Transport interface {
	Run(ctx context.Context, sessionID, clientID string, deliver func(Change)) error
}

// StoreFetcher is the in-process Fetcher over the store and presence
// tracker.
type StoreFetcher struct {
	Store    store.Store
	Presence *presence.Tracker
}

// Fetch returns the session snapshot and heartbeats the client.
func (f *StoreFetcher) Fetch(_ context.Context, sessionID, clientID string) (*Snapshot, error) {
	s, err := f.Store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if clientID != "" {
		f.Presence.Heartbeat(sessionID, clientID)
	}
	return &Snapshot{
		Session:     s,
		ClientCount: f.Presence.Count(sessionID),
	}, nil
}
