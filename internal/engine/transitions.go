package engine

import "github.com/jamshare/backend/internal/store"

// The transition functions below are pure mutations of a session snapshot.
// They run inside the store's critical section via CompareAndSwap, so every
// multi-field transition (play, advance) is committed as one versioned unit
// and observers never see an intermediate state.

func enqueue(s *store.Session, song store.Song) error {
	s.Queue = append(s.Queue, song)
	return nil
}

// reorder replaces the queue with a permutation of the same elements. The
// multiset of song ids must match the current queue exactly; any addition,
// removal, or duplicate is rejected. This defends against lost-update races
// during reordering.
func reorder(s *store.Session, order []string) error {
	if len(order) != len(s.Queue) {
		return validationErrorf("reorder has %d songs, queue has %d", len(order), len(s.Queue))
	}

	remaining := make(map[string][]store.Song, len(s.Queue))
	for _, song := range s.Queue {
		remaining[song.ID] = append(remaining[song.ID], song)
	}

	next := make([]store.Song, 0, len(order))
	for _, id := range order {
		songs := remaining[id]
		if len(songs) == 0 {
			return validationErrorf("reorder references song %q not in queue", id)
		}
		next = append(next, songs[0])
		remaining[id] = songs[1:]
	}

	s.Queue = next
	return nil
}

// play with a song loads it as current (removing it from the queue if
// queued) and starts playback. Play with no song toggles the play flag on
// the loaded song, or dequeues the head when nothing is loaded yet.
func play(s *store.Session, song *store.Song) error {
	if song == nil {
		if s.CurrentSong != nil {
			s.IsPlaying = !s.IsPlaying
			return nil
		}
		if len(s.Queue) == 0 {
			return validationErrorf("nothing to play: no current song and the queue is empty")
		}
		advance(s)
		return nil
	}

	if s.CurrentSong != nil && s.CurrentSong.ID == song.ID {
		s.IsPlaying = true
		return nil
	}

	s.CurrentSong = song
	s.IsPlaying = true
	removeFromQueue(s, song.ID)
	return nil
}

// advance dequeues the next song, or stops on an empty queue. Running out
// of queue is a terminal condition, not an error.
func advance(s *store.Session) {
	if len(s.Queue) == 0 {
		s.CurrentSong = nil
		s.IsPlaying = false
		return
	}
	head := s.Queue[0]
	s.CurrentSong = &head
	s.Queue = append([]store.Song{}, s.Queue[1:]...)
	s.IsPlaying = true
}

func stop(s *store.Session) {
	s.IsPlaying = false
}

func rename(s *store.Session, name string) {
	s.Name = name
}

// setDuration back-fills a song duration reported by the playback layer,
// merging it into the current song and every matching queue entry.
func setDuration(s *store.Session, songID string, durationMs int64) error {
	found := false
	if s.CurrentSong != nil && s.CurrentSong.ID == songID {
		d := durationMs
		s.CurrentSong.DurationMs = &d
		found = true
	}
	for i := range s.Queue {
		if s.Queue[i].ID == songID {
			d := durationMs
			s.Queue[i].DurationMs = &d
			found = true
		}
	}
	if !found {
		return validationErrorf("song %q is neither current nor queued", songID)
	}
	return nil
}

// removeFromQueue drops the first queue entry with the given id, keeping
// the invariant that the queue never contains the current song.
func removeFromQueue(s *store.Session, songID string) {
	for i, song := range s.Queue {
		if song.ID == songID {
			s.Queue = append(append([]store.Song{}, s.Queue[:i]...), s.Queue[i+1:]...)
			return
		}
	}
}

// apply dispatches a validated command to its transition.
func apply(s *store.Session, cmd Command) error {
	switch cmd.Action {
	case ActionEnqueue:
		return enqueue(s, *cmd.Song)
	case ActionReorder:
		return reorder(s, cmd.Order)
	case ActionPlay:
		return play(s, cmd.Song)
	case ActionAdvance:
		advance(s)
		return nil
	case ActionStop:
		stop(s)
		return nil
	case ActionRename:
		rename(s, cmd.Name)
		return nil
	case ActionSetDuration:
		return setDuration(s, cmd.SongID, cmd.DurationMs)
	}
	return validationErrorf("action %q is not a state mutation", cmd.Action)
}
