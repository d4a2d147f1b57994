package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jamshare/backend/internal/broker"
	"github.com/jamshare/backend/internal/presence"
	"github.com/jamshare/backend/internal/store"
)

// ssePayload is the data body of a session_changed event. Clients compare
// updateId against their own last write for echo suppression and re-fetch
// the fields listed in changed.
type ssePayload struct {
	Version  int64    `json:"version"`
	UpdateID string   `json:"updateId,omitempty"`
	ClientID string   `json:"clientId,omitempty"`
	Changed  []string `json:"changed"`
}

// SSEHandler serves Server-Sent Events streams, the push variant of the
// sync transport for clients that can hold a connection open.
type SSEHandler struct {
	broker    *broker.Broker
	store     store.Store
	presence  *presence.Tracker
	heartbeat time.Duration
}

// NewSSEHandler creates an SSEHandler backed by the given broker. The
// heartbeat interval must stay under the presence timeout, since the stream
// heartbeats the client's presence on the same ticker.
func NewSSEHandler(b *broker.Broker, s store.Store, p *presence.Tracker, heartbeat time.Duration) *SSEHandler {
	return &SSEHandler{broker: b, store: s, presence: p, heartbeat: heartbeat}
}

// Stream opens an SSE connection scoped to a session. It sends an initial
// "connected" event, then a "session_changed" event for every committed
// mutation or client-count change. A heartbeat comment on the configured
// interval keeps the connection alive through proxies and doubles as the
// client's presence heartbeat.
func (h *SSEHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	clientID := r.URL.Query().Get("clientId")

	if _, err := h.store.Get(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := h.broker.Subscribe(sessionID)
	defer h.broker.Unsubscribe(sessionID, ch)

	if clientID != "" {
		h.presence.Heartbeat(sessionID, clientID)
		defer h.presence.Leave(sessionID, clientID)
	}

	fmt.Fprintf(w, "event: connected\ndata: ok\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			data, err := json.Marshal(ssePayload{
				Version:  ev.Version,
				UpdateID: ev.UpdateID,
				ClientID: ev.ClientID,
				Changed:  ev.Changed,
			})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: session_changed\ndata: %s\n\n", data)
			flusher.Flush()
		case <-heartbeat.C:
			if clientID != "" {
				h.presence.Heartbeat(sessionID, clientID)
			}
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
