// Package engine encodes the playback/queue state machine and the
// optimistic-concurrency protocol around it. Client intents arrive as
// explicit tagged commands rather than a bag of optional fields, so intent
// is never inferred from which fields happen to be present.
package engine

import (
	"fmt"

	"github.com/jamshare/backend/internal/store"
)

// Action tags a mutation command.
type Action string

const (
	ActionEnqueue     Action = "enqueue"
	ActionReorder     Action = "reorder"
	ActionPlay        Action = "play"
	ActionAdvance     Action = "advance"
	ActionStop        Action = "stop"
	ActionRename      Action = "rename"
	ActionSetDuration Action = "setDuration"
	ActionJoin        Action = "join"
	ActionLeave       Action = "leave"
)

// Command is the tagged union of session mutations. Only the payload fields
// relevant to the Action are consulted.
type Command struct {
	Action Action

	Song       *store.Song // enqueue, play (optional)
	Order      []string    // reorder: song ids in the desired order
	Name       string      // rename
	SongID     string      // setDuration
	DurationMs int64       // setDuration
}

// ValidationError describes a malformed mutation payload. Surfaced as 400;
// never partially applied.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PolicyError describes a mutation rejected by the host/guest policy.
// Surfaced as 403 so the client can tell the user instead of silently
// dropping the write.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

// validate checks the command payload before any state is touched.
func (c Command) validate() error {
	switch c.Action {
	case ActionEnqueue:
		if c.Song == nil || c.Song.ID == "" {
			return validationErrorf("enqueue requires a song with an id")
		}
	case ActionReorder:
		if c.Order == nil {
			return validationErrorf("reorder requires an order")
		}
	case ActionPlay:
		if c.Song != nil && c.Song.ID == "" {
			return validationErrorf("play song must have an id")
		}
	case ActionRename:
		if c.Name == "" {
			return validationErrorf("rename requires a name")
		}
	case ActionSetDuration:
		if c.SongID == "" {
			return validationErrorf("setDuration requires a songId")
		}
		if c.DurationMs <= 0 {
			return validationErrorf("setDuration requires a positive durationMs")
		}
	case ActionAdvance, ActionStop, ActionJoin, ActionLeave:
	default:
		return validationErrorf("unknown action %q", c.Action)
	}
	return nil
}
