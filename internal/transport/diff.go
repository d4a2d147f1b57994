// Package transport delivers state changes to connected clients of a
// session, at-least-once, with per-field change detection so listeners can
// react only to what changed. It offers two interchangeable strategies with
// the same observable contract: a push feed over the in-process broker and
// a pull loop that polls and diffs.
package transport

import "github.com/jamshare/backend/internal/store"

// Field names reported in change notifications.
const (
	FieldName        = "name"
	FieldCurrentSong = "currentSong"
	FieldQueue       = "queue"
	FieldIsPlaying   = "isPlaying"
	FieldHostID      = "hostId"
	FieldClientCount = "clientCount"
)

// Diff returns the session fields that differ between two snapshots, in a
// fixed order. Songs compare by id and duration; the queue compares
// element-wise.
func Diff(prev, next *store.Session) []string {
	var changed []string
	if prev.Name != next.Name {
		changed = append(changed, FieldName)
	}
	if !sameSong(prev.CurrentSong, next.CurrentSong) {
		changed = append(changed, FieldCurrentSong)
	}
	if !sameQueue(prev.Queue, next.Queue) {
		changed = append(changed, FieldQueue)
	}
	if prev.IsPlaying != next.IsPlaying {
		changed = append(changed, FieldIsPlaying)
	}
	if prev.HostID != next.HostID {
		changed = append(changed, FieldHostID)
	}
	return changed
}

func sameSong(a, b *store.Song) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.ID != b.ID || a.Name != b.Name {
		return false
	}
	if a.DurationMs == nil || b.DurationMs == nil {
		return a.DurationMs == nil && b.DurationMs == nil
	}
	return *a.DurationMs == *b.DurationMs
}

func sameQueue(a, b []store.Song) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameSong(&a[i], &b[i]) {
			return false
		}
	}
	return true
}
