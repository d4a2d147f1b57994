package transport

import (
	"context"
	"errors"
	"time"

	"github.com/jamshare/backend/internal/store"
)

// Poller is the pull variant of the sync transport: a periodic
// fetch-and-diff loop for clients that only have request/response. It
// retains the last-seen version and only reacts when the fetched version is
// newer, diffing each field to emit the minimal set of notifications.
type Poller struct {
	Fetcher  Fetcher
	Interval time.Duration
	Echo     *EchoFilter
}

// Run polls until the context is cancelled. The first successful fetch
// establishes the baseline without emitting notifications; the caller is
// expected to render initial state from its own fetch. Returns an error
// when the session no longer exists.
func (p *Poller) Run(ctx context.Context, sessionID, clientID string, deliver func(Change)) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	var last *Snapshot

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		snap, err := p.Fetcher.Fetch(ctx, sessionID, clientID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return err
			}
			continue // transient; keep polling
		}

		if last == nil {
			last = snap
			continue
		}

		if snap.ClientCount != last.ClientCount {
			deliver(Change{Field: FieldClientCount, Snapshot: snap})
		}

		if snap.Session.Version > last.Session.Version {
			// Echo suppression only applies when the single newest update is
			// our own; if others committed in between, their changes must
			// still be surfaced.
			ownEcho := snap.Session.Version == last.Session.Version+1 &&
				p.Echo != nil && p.Echo.Suppress(snap.Session.LastUpdateID)
			if !ownEcho {
				for _, field := range Diff(last.Session, snap.Session) {
					deliver(Change{Field: field, Snapshot: snap})
				}
			}
		}

		last = snap
	}
}
