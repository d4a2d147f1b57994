package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jamshare/backend/internal/broker"
	"github.com/jamshare/backend/internal/presence"
	"github.com/jamshare/backend/internal/store"
)

// WSHandler serves the websocket flavor of the push transport. Messages
// down the wire are the same session_changed payloads the SSE stream sends;
// any message received from the client is treated as a presence heartbeat.
type WSHandler struct {
	broker   *broker.Broker
	store    store.Store
	presence *presence.Tracker
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WSHandler. checkOrigin decides which Origin
// headers may upgrade.
func NewWSHandler(b *broker.Broker, s store.Store, p *presence.Tracker, checkOrigin func(r *http.Request) bool) *WSHandler {
	return &WSHandler{
		broker:   b,
		store:    s,
		presence: p,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// Stream upgrades the connection and relays session change events until
// either side closes.
func (h *WSHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	clientID := r.URL.Query().Get("clientId")

	if _, err := h.store.Get(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch := h.broker.Subscribe(sessionID)
	defer h.broker.Unsubscribe(sessionID, ch)

	if clientID != "" {
		h.presence.Heartbeat(sessionID, clientID)
		defer h.presence.Leave(sessionID, clientID)
	}

	// Read loop: consumes client messages (heartbeats) and detects close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			if clientID != "" {
				h.presence.Heartbeat(sessionID, clientID)
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
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
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
