package presence

import (
	"testing"
	"time"
)

const testTimeout = 10 * time.Second

func newTestTracker() (*Tracker, *time.Time) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(testTimeout)
	tr.SetClock(func() time.Time { return now })
	return tr, &now
}

func TestHeartbeatIsImplicitJoin(t *testing.T) {
	tr, _ := newTestTracker()

	if !tr.Heartbeat("s1", "alice") {
		t.Error("first heartbeat should report a join")
	}
	if tr.Heartbeat("s1", "alice") {
		t.Error("repeat heartbeat should not report a join")
	}
	if got := tr.Count("s1"); got != 1 {
		t.Errorf("expected count 1, got %d", got)
	}

	tr.Heartbeat("s1", "bob")
	if got := tr.Count("s1"); got != 2 {
		t.Errorf("expected count 2, got %d", got)
	}
}

func TestHeartbeatIgnoresEmptyClientID(t *testing.T) {
	tr, _ := newTestTracker()
	if tr.Heartbeat("s1", "") {
		t.Error("empty clientID must not join")
	}
	if got := tr.Count("s1"); got != 0 {
		t.Errorf("expected count 0, got %d", got)
	}
}

func TestCountExcludesStaleClients(t *testing.T) {
	tr, now := newTestTracker()

	tr.Heartbeat("s1", "alice")
	*now = now.Add(testTimeout - time.Millisecond)
	if got := tr.Count("s1"); got != 1 {
		t.Errorf("client inside the window should count, got %d", got)
	}
	if !tr.Alive("s1", "alice") {
		t.Error("client inside the window should be alive")
	}

	*now = now.Add(2 * time.Millisecond)
	if got := tr.Count("s1"); got != 0 {
		t.Errorf("client past the window should not count, got %d", got)
	}
	if tr.Alive("s1", "alice") {
		t.Error("client past the window should not be alive")
	}
}

func TestHeartbeatRefreshesWindow(t *testing.T) {
	tr, now := newTestTracker()

	tr.Heartbeat("s1", "alice")
	*now = now.Add(testTimeout / 2)
	tr.Heartbeat("s1", "alice")
	*now = now.Add(testTimeout / 2)
	if got := tr.Count("s1"); got != 1 {
		t.Errorf("refreshed client dropped early, count %d", got)
	}
}

func TestLeaveRemovesImmediately(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Heartbeat("s1", "alice")
	tr.Heartbeat("s1", "bob")
	tr.Leave("s1", "alice")

	if got := tr.Count("s1"); got != 1 {
		t.Errorf("expected count 1 after leave, got %d", got)
	}
	if tr.Alive("s1", "alice") {
		t.Error("departed client must not be alive")
	}
}

func TestSweepReapsAndNotifies(t *testing.T) {
	tr, now := newTestTracker()

	var gotSession string
	var gotCount = -1
	tr.OnChange(func(sessionID string, count int) {
		gotSession = sessionID
		gotCount = count
	})

	tr.Heartbeat("s1", "alice")
	tr.Heartbeat("s1", "bob")
	gotSession, gotCount = "", -1 // ignore join notifications

	*now = now.Add(testTimeout / 2)
	tr.Heartbeat("s1", "bob")

	*now = now.Add(testTimeout/2 + time.Millisecond)
	tr.Sweep()

	if gotSession != "s1" || gotCount != 1 {
		t.Errorf("expected change notification (s1, 1), got (%q, %d)", gotSession, gotCount)
	}
	if got := tr.Count("s1"); got != 1 {
		t.Errorf("expected count 1 after sweep, got %d", got)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Heartbeat("s1", "alice")
	tr.Heartbeat("s2", "alice")
	tr.Leave("s1", "alice")

	if got := tr.Count("s2"); got != 1 {
		t.Errorf("leave in one session affected another, count %d", got)
	}
}
