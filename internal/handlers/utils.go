package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jamshare/backend/internal/logging"
	"github.com/jamshare/backend/internal/models"
	"github.com/jamshare/backend/internal/presence"
	"github.com/jamshare/backend/internal/store"
)

// writeJSON serializes data as JSON and writes it to the response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a simple error response for client errors.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: code, Message: message})
}

// writeConflict writes the 409 version_conflict response carrying the
// stored version so the caller can re-read and retry.
func writeConflict(w http.ResponseWriter, current int64) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:          "version_conflict",
		Message:        "session was modified; re-fetch and retry",
		CurrentVersion: &current,
	})
}

// writeErrorWithCause writes an error response and logs the error with a
// stack trace. Use this for server errors where there is an underlying
// error to record.
func writeErrorWithCause(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	writeError(w, status, code, message)

	if status >= 400 && err != nil {
		wrappedErr := logging.WrapError(err, message)
		logging.LogErrorWithStatus(ctx, status, "error response", wrappedErr)
	}
}

// sessionResponse builds the wire snapshot from a stored session plus the
// derived client count.
func sessionResponse(s *store.Session, tracker *presence.Tracker) models.SessionResponse {
	resp := models.SessionResponse{
		ID:          s.ID,
		Name:        s.Name,
		Queue:       make([]models.SongPayload, len(s.Queue)),
		IsPlaying:   s.IsPlaying,
		SharedQueue: s.SharedQueue,
		HostID:      s.HostID,
		ClientCount: tracker.Count(s.ID),
		Version:     s.Version,
		LastUpdate:  s.LastUpdate,
		UpdateID:    s.LastUpdateID,
	}
	if s.CurrentSong != nil {
		song := songPayload(*s.CurrentSong)
		resp.CurrentSong = &song
	}
	for i, q := range s.Queue {
		resp.Queue[i] = songPayload(q)
	}
	return resp
}

func songPayload(s store.Song) models.SongPayload {
	return models.SongPayload{ID: s.ID, Name: s.Name, DurationMs: s.DurationMs}
}

func songFromPayload(p *models.SongPayload) *store.Song {
	if p == nil {
		return nil
	}
	return &store.Song{ID: p.ID, Name: p.Name, DurationMs: p.DurationMs}
}
