package engine

import (
	"github.com/google/uuid"

	"github.com/jamshare/backend/internal/broker"
	"github.com/jamshare/backend/internal/presence"
	"github.com/jamshare/backend/internal/store"
	"github.com/jamshare/backend/internal/transport"
)

// Controller wraps store updates with version-gated optimistic concurrency.
// Stale writes are rejected with a store.ConflictError instead of silently
// overwriting newer state; the caller re-reads and decides whether its
// intent still applies. The controller never retries on its own.
type Controller struct {
	store    store.Store
	presence *presence.Tracker
	broker   *broker.Broker
}

// NewController wires the controller to its collaborators.
func NewController(s store.Store, p *presence.Tracker, b *broker.Broker) *Controller {
	return &Controller{store: s, presence: p, broker: b}
}

// Request is one versioned client mutation. UpdateID is optional; when
// empty an id is derived from the client id so the originating client can
// still suppress its own echo.
type Request struct {
	SessionID       string
	ClientID        string
	ExpectedVersion int64
	UpdateID        string
	Command         Command
}

// Update applies a mutation command through a single compare-and-swap.
// Host policy is enforced inside the store's critical section so it always
// evaluates against the state actually being replaced. On success the
// accepted update is tagged with the update id, the client's presence is
// refreshed, and subscribers are notified.
func (c *Controller) Update(req Request) (*store.Session, error) {
	if req.ClientID == "" {
		return nil, validationErrorf("clientId is required")
	}
	if err := req.Command.validate(); err != nil {
		return nil, err
	}

	updateID := req.UpdateID
	if updateID == "" {
		updateID = req.ClientID + ":" + uuid.NewString()
	}

	var changed []string
	snap, err := c.store.CompareAndSwap(req.SessionID, req.ExpectedVersion, func(s *store.Session) error {
		if err := authorize(s, req.ClientID, req.Command); err != nil {
			return err
		}
		prev := s.Clone()
		if err := apply(s, req.Command); err != nil {
			return err
		}
		changed = transport.Diff(prev, s)
		s.LastUpdateID = updateID
		s.LastClientID = req.ClientID
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.presence.Heartbeat(req.SessionID, req.ClientID)
	c.broker.Publish(broker.Event{
		SessionID: req.SessionID,
		Version:   snap.Version,
		UpdateID:  updateID,
		ClientID:  req.ClientID,
		Changed:   changed,
	})
	return snap, nil
}

// Join registers the client's presence and binds it as host when no live
// host is bound. The host slot is reclaimable: a bound host that stopped
// heartbeating no longer blocks a new host. Joining cannot present a
// version (the client hasn't seen the session yet), so the binding goes
// through the store's serialized Apply rather than CompareAndSwap.
func (c *Controller) Join(sessionID, clientID string) (*store.Session, error) {
	if clientID == "" {
		return nil, validationErrorf("clientId is required")
	}
	if _, err := c.store.Get(sessionID); err != nil {
		return nil, err
	}

	c.presence.Heartbeat(sessionID, clientID)

	bound := false
	updateID := clientID + ":" + uuid.NewString()
	snap, err := c.store.Apply(sessionID, func(s *store.Session) error {
		if s.HostID == clientID {
			return store.ErrNoChange
		}
		if s.HostID != "" && c.presence.Alive(sessionID, s.HostID) {
			return store.ErrNoChange
		}
		s.HostID = clientID
		s.LastUpdateID = updateID
		s.LastClientID = clientID
		bound = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if bound {
		c.broker.Publish(broker.Event{
			SessionID: sessionID,
			Version:   snap.Version,
			UpdateID:  updateID,
			ClientID:  clientID,
			Changed:   []string{transport.FieldHostID},
		})
	}
	return snap, nil
}

// Leave removes the client's presence. A leaving host is not unbound here;
// its slot is reclaimed by the next join once liveness has lapsed, and its
// earlier writes remain valid history.
func (c *Controller) Leave(sessionID, clientID string) (*store.Session, error) {
	snap, err := c.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	c.presence.Leave(sessionID, clientID)
	return snap, nil
}

// authorize enforces mutation rights: only the bound host may mutate
// playback state, and enqueue is additionally open to any client when the
// session's queue is shared-write.
func authorize(s *store.Session, clientID string, cmd Command) error {
	if s.HostID == clientID && s.HostID != "" {
		return nil
	}
	if cmd.Action == ActionEnqueue && s.SharedQueue {
		return nil
	}
	if s.HostID == "" {
		return &PolicyError{Reason: "no host is bound to this session; join first"}
	}
	return &PolicyError{Reason: "only the session host may perform this action"}
}
