package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jamshare/backend/internal/engine"
	"github.com/jamshare/backend/internal/logging"
	"github.com/jamshare/backend/internal/models"
	"github.com/jamshare/backend/internal/presence"
	"github.com/jamshare/backend/internal/store"
)

const maxSessionNameLen = 60

// SessionHandler serves the session surface: creation, snapshot fetch with
// heartbeat, and the tagged mutation endpoint.
type SessionHandler struct {
	store      store.Store
	presence   *presence.Tracker
	controller *engine.Controller
}

// NewSessionHandler creates a SessionHandler with the required dependencies.
func NewSessionHandler(s store.Store, p *presence.Tracker, c *engine.Controller) *SessionHandler {
	return &SessionHandler{store: s, presence: p, controller: c}
}

// Create initializes a new session with a fresh id, version 0, and an empty
// queue. Sessions are only ever created explicitly; fetching or mutating an
// unknown id is a 404, never a lazy create.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "name is required")
		return
	}
	if len(name) > maxSessionNameLen {
		name = name[:maxSessionNameLen]
	}

	session, err := h.store.Create(name, req.SharedQueue)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "internal_error", "failed to create session", err)
		return
	}

	slog.Info("session created",
		slog.String("session_id", session.ID),
		slog.String("name", session.Name),
		slog.Bool("shared_queue", session.SharedQueue))

	writeJSON(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID: session.ID,
		Message:   "Session created successfully",
	})
}

// Get returns the session snapshot. A clientId query parameter doubles as a
// heartbeat, so a plain polling loop keeps its presence alive without extra
// requests.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	clientID := r.URL.Query().Get("clientId")

	session, err := h.store.Get(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	if clientID != "" {
		h.presence.Heartbeat(sessionID, clientID)
	}

	writeJSON(w, http.StatusOK, sessionResponse(session, h.presence))
}

// Mutate dispatches one tagged mutation command through the concurrency
// controller. The response echoes the update id so the client can suppress
// its own echo on the sync channel.
func (h *SessionHandler) Mutate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req models.MutateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "clientId is required")
		return
	}

	action := engine.Action(req.Action)
	switch action {
	case engine.ActionJoin:
		h.join(w, r, sessionID, req.ClientID)
		return
	case engine.ActionLeave:
		h.leave(w, r, sessionID, req.ClientID)
		return
	}

	if req.ExpectedVersion == nil {
		writeError(w, http.StatusBadRequest, "validation_error", "expectedVersion is required")
		return
	}

	cmd := engine.Command{
		Action: action,
		Song:   songFromPayload(req.Song),
		Order:  req.Order,
		Name:   strings.TrimSpace(req.Name),
		SongID: req.SongID,
	}
	if req.DurationMs != nil {
		cmd.DurationMs = *req.DurationMs
	}

	session, err := h.controller.Update(engine.Request{
		SessionID:       sessionID,
		ClientID:        req.ClientID,
		ExpectedVersion: *req.ExpectedVersion,
		UpdateID:        req.UpdateID,
		Command:         cmd,
	})
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(session, h.presence))
}

func (h *SessionHandler) join(w http.ResponseWriter, r *http.Request, sessionID, clientID string) {
	session, err := h.controller.Join(sessionID, clientID)
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	if session.HostID == clientID {
		slog.Info("host bound",
			slog.String("session_id", sessionID),
			slog.String("client_id", clientID))
	}
	writeJSON(w, http.StatusOK, sessionResponse(session, h.presence))
}

func (h *SessionHandler) leave(w http.ResponseWriter, r *http.Request, sessionID, clientID string) {
	session, err := h.controller.Leave(sessionID, clientID)
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(session, h.presence))
}

// writeMutationError maps engine/store errors onto the HTTP taxonomy.
func (h *SessionHandler) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *store.ConflictError
	var validation *engine.ValidationError
	var policy *engine.PolicyError

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.As(err, &conflict):
		writeConflict(w, conflict.Current)
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "validation_error", validation.Reason)
	case errors.As(err, &policy):
		logging.LogPolicyEvent(r.Context(), logging.PolicyEventGuestMutationDenied, policy.Reason)
		writeError(w, http.StatusForbidden, "forbidden", policy.Reason)
	default:
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "internal_error", "failed to apply mutation", err)
	}
}
