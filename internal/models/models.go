package models

import "time"

// Session management
type CreateSessionRequest struct {
	Name        string `json:"name"`
	SharedQueue bool   `json:"sharedQueue,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// SongPayload mirrors the opaque song triple on the wire.
type SongPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMs *int64 `json:"durationMs,omitempty"`
}

// MutateSessionRequest is the tagged mutation body for POST /sessions/{id}.
// Action selects which payload fields apply.
type MutateSessionRequest struct {
	Action          string `json:"action"`
	ClientID        string `json:"clientId"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
	UpdateID        string `json:"updateId,omitempty"`

	Song       *SongPayload `json:"song,omitempty"`       // enqueue, play
	Order      []string     `json:"order,omitempty"`      // reorder
	Name       string       `json:"name,omitempty"`       // rename
	SongID     string       `json:"songId,omitempty"`     // setDuration
	DurationMs *int64       `json:"durationMs,omitempty"` // setDuration
}

// SessionResponse is the snapshot shape returned by fetch and every
// accepted mutation. ClientCount is derived from presence, never stored.
type SessionResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	CurrentSong *SongPayload  `json:"currentSong"`
	Queue       []SongPayload `json:"queue"`
	IsPlaying   bool          `json:"isPlaying"`
	SharedQueue bool          `json:"sharedQueue"`
	HostID      string        `json:"hostId,omitempty"`
	ClientCount int           `json:"clientCount"`
	Version     int64         `json:"version"`
	LastUpdate  time.Time     `json:"lastUpdate"`
	UpdateID    string        `json:"updateId,omitempty"`
}

// PublicConfigResponse advertises the intervals clients should use.
type PublicConfigResponse struct {
	HeartbeatIntervalMs int64 `json:"heartbeatIntervalMs"`
	PollIntervalMs      int64 `json:"pollIntervalMs"`
	PresenceTimeoutMs   int64 `json:"presenceTimeoutMs"`
}

// ErrorResponse is the uniform error body. CurrentVersion is set on
// version_conflict so the caller can re-read and retry.
type ErrorResponse struct {
	Error          string `json:"error"`
	Message        string `json:"message,omitempty"`
	CurrentVersion *int64 `json:"currentVersion,omitempty"`
}
