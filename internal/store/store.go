// Package store owns the canonical in-memory record for every playback
// session and exposes the compare-and-swap primitive that makes optimistic
// concurrency work. It is policy-agnostic: host checks and transition rules
// live in the engine package.
package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("session not found")

// ErrNoChange can be returned from a mutation function passed to Apply to
// commit nothing: the session is left untouched and the version does not move.
var ErrNoChange = errors.New("no change")

// ConflictError is returned by CompareAndSwap when the caller's expected
// version does not match the stored version. Current carries the stored
// version so the caller can re-read and retry.
type ConflictError struct {
	Current int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: current version is %d", e.Current)
}

// Song is the opaque, externally sourced value a session plays and queues.
// Duration may be back-filled later by the playback layer.
type Song struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMs *int64 `json:"durationMs,omitempty"`
}

// Session is the unit of sharing: one current song, one ordered queue, one
// play flag. Version strictly increases by 1 on every accepted mutation.
type Session struct {
	ID          string
	Name        string
	CurrentSong *Song
	Queue       []Song
	IsPlaying   bool
	SharedQueue bool
	HostID      string
	Version     int64
	LastUpdate  time.Time

	// LastUpdateID and LastClientID tag the most recent accepted mutation
	// so the originating client can recognize its own echo.
	LastUpdateID string
	LastClientID string
}

// Clone returns a deep copy so callers can never mutate stored state outside
// the store's critical section.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.CurrentSong != nil {
		song := *s.CurrentSong
		if s.CurrentSong.DurationMs != nil {
			d := *s.CurrentSong.DurationMs
			song.DurationMs = &d
		}
		c.CurrentSong = &song
	}
	if s.Queue != nil {
		c.Queue = make([]Song, len(s.Queue))
		for i, q := range s.Queue {
			c.Queue[i] = q
			if q.DurationMs != nil {
				d := *q.DurationMs
				c.Queue[i].DurationMs = &d
			}
		}
	}
	return &c
}

// Store is the session storage contract. All mutations to a given session
// are serialized; CompareAndSwap is the only way a versioned client intent
// reaches storage, Apply is for system transitions (host binding) where the
// caller cannot know a version yet.
type Store interface {
	Create(name string, sharedQueue bool) (*Session, error)
	Get(id string) (*Session, error)
	CompareAndSwap(id string, expectedVersion int64, mutate func(*Session) error) (*Session, error)
	Apply(id string, mutate func(*Session) error) (*Session, error)
	Delete(id string)
	IDs() []string
}
