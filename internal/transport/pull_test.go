package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jamshare/backend/internal/store"
)

// scriptedFetcher returns one snapshot per poll and ends the run with
// store.ErrNotFound once the script is exhausted, so poller tests are
// deterministic.
type scriptedFetcher struct {
	snaps []*Snapshot
}

func (f *scriptedFetcher) Fetch(_ context.Context, _, _ string) (*Snapshot, error) {
	if len(f.snaps) == 0 {
		return nil, store.ErrNotFound
	}
	snap := f.snaps[0]
	f.snaps = f.snaps[1:]
	return snap, nil
}

func snapshot(version int64, updateID string, count int, mutate func(*store.Session)) *Snapshot {
	s := &store.Session{
		ID:           "s1",
		Name:         "Test",
		Version:      version,
		LastUpdateID: updateID,
	}
	if mutate != nil {
		mutate(s)
	}
	return &Snapshot{Session: s, ClientCount: count}
}

func runPoller(t *testing.T, fetcher Fetcher, echo *EchoFilter) []Change {
	t.Helper()
	p := &Poller{Fetcher: fetcher, Interval: time.Millisecond, Echo: echo}

	var changes []Change
	err := p.Run(context.Background(), "s1", "me", func(c Change) {
		changes = append(changes, c)
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected run to end with ErrNotFound, got %v", err)
	}
	return changes
}

func TestPollerBaselineEmitsNothing(t *testing.T) {
	f := &scriptedFetcher{snaps: []*Snapshot{
		snapshot(4, "", 2, nil),
		snapshot(4, "", 2, nil),
	}}
	if changes := runPoller(t, f, nil); len(changes) != 0 {
		t.Errorf("expected no notifications, got %v", changes)
	}
}

func TestPollerEmitsDiffOnNewVersion(t *testing.T) {
	f := &scriptedFetcher{snaps: []*Snapshot{
		snapshot(0, "", 1, nil),
		snapshot(1, "bob:u1", 1, func(s *store.Session) {
			s.Queue = []store.Song{{ID: "a", Name: "One"}}
			s.IsPlaying = true
		}),
	}}
	changes := runPoller(t, f, nil)
	if len(changes) != 2 {
		t.Fatalf("expected 2 notifications, got %v", changes)
	}
	if changes[0].Field != FieldQueue || changes[1].Field != FieldIsPlaying {
		t.Errorf("expected [queue isPlaying], got [%s %s]", changes[0].Field, changes[1].Field)
	}
	if changes[0].Snapshot.Session.Version != 1 {
		t.Errorf("notification must carry the new snapshot, got version %d", changes[0].Snapshot.Session.Version)
	}
}

func TestPollerSuppressesOwnEcho(t *testing.T) {
	echo := NewEchoFilter(10 * time.Second)
	echo.Remember("me:u1")

	f := &scriptedFetcher{snaps: []*Snapshot{
		snapshot(0, "", 1, nil),
		snapshot(1, "me:u1", 1, func(s *store.Session) { s.IsPlaying = true }),
	}}
	if changes := runPoller(t, f, echo); len(changes) != 0 {
		t.Errorf("own echo must be suppressed, got %v", changes)
	}
}

func TestPollerDoesNotSuppressWhenOthersCommittedInBetween(t *testing.T) {
	echo := NewEchoFilter(10 * time.Second)
	echo.Remember("me:u1")

	// Two versions ahead: ours plus someone else's. Both must surface.
	f := &scriptedFetcher{snaps: []*Snapshot{
		snapshot(0, "", 1, nil),
		snapshot(2, "me:u1", 1, func(s *store.Session) { s.IsPlaying = true }),
	}}
	changes := runPoller(t, f, echo)
	if len(changes) != 1 || changes[0].Field != FieldIsPlaying {
		t.Errorf("interleaved foreign updates must not be swallowed, got %v", changes)
	}
}

func TestPollerEmitsClientCountChanges(t *testing.T) {
	f := &scriptedFetcher{snaps: []*Snapshot{
		snapshot(0, "", 1, nil),
		snapshot(0, "", 3, nil),
	}}
	changes := runPoller(t, f, nil)
	if len(changes) != 1 || changes[0].Field != FieldClientCount {
		t.Fatalf("expected [clientCount], got %v", changes)
	}
	if changes[0].Snapshot.ClientCount != 3 {
		t.Errorf("expected count 3, got %d", changes[0].Snapshot.ClientCount)
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Poller{Fetcher: &scriptedFetcher{}, Interval: time.Millisecond}
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, "s1", "me", func(Change) {})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancelled run should return nil, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}
