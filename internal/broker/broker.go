// Package broker provides an in-memory pub/sub mechanism scoped by session
// ID. It is the push half of the sync transport: every committed session
// mutation (and every client-count change) is published to the session's
// subscribers.
package broker

import "sync"

// Event describes one observable session change. UpdateID and ClientID tag
// the originating mutation so a subscriber can recognize its own echo.
// Changed lists the fields that differ from the previous state
// ("currentSong", "queue", "isPlaying", "name", "clientCount").
type Event struct {
	SessionID string
	Version   int64
	UpdateID  string
	ClientID  string
	Changed   []string
}

// Broker is a session-scoped pub/sub hub. Subscriber channels are buffered
// to 1 with latest-wins delivery: a slow subscriber sees the most recent
// event rather than blocking publishers, and re-reads full state on receipt
// (delivery is at-least-once, not a change log).
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// New creates a ready-to-use Broker.
func New() *Broker {
	return &Broker{
		subs: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe returns a buffered(1) channel that receives an Event each time
// Publish is called for the given session ID.
func (b *Broker) Subscribe(sessionID string) chan Event {
	ch := make(chan Event, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	return ch
}

// Unsubscribe removes a channel from the session's subscriber set.
// If the session has no remaining subscribers, the entry is cleaned up.
func (b *Broker) Unsubscribe(sessionID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[sessionID]; ok {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(b.subs, sessionID)
		}
	}
}

// Publish delivers ev to every subscriber for the session without blocking.
// If a subscriber's buffer holds an unread event, it is replaced with the
// newer one.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
