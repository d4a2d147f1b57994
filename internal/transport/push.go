package transport

import (
	"context"

	"github.com/jamshare/backend/internal/broker"
)

// PushFeed is the push variant of the sync transport: it subscribes to the
// in-process broker and re-reads the session on every published event.
// Used when a persistent connection (SSE, websocket) exists.
type PushFeed struct {
	Broker  *broker.Broker
	Fetcher Fetcher
	Echo    *EchoFilter
}

// Run delivers change notifications until the context is cancelled or the
// session disappears.
func (p *PushFeed) Run(ctx context.Context, sessionID, clientID string, deliver func(Change)) error {
	ch := p.Broker.Subscribe(sessionID)
	defer p.Broker.Unsubscribe(sessionID, ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-ch:
			if p.Echo != nil && p.Echo.Suppress(ev.UpdateID) {
				continue
			}
			snap, err := p.Fetcher.Fetch(ctx, sessionID, clientID)
			if err != nil {
				return err
			}
			for _, field := range ev.Changed {
				deliver(Change{Field: field, Snapshot: snap})
			}
		}
	}
}
