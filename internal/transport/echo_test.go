package transport

import (
	"testing"
	"time"
)

func TestSuppressConsumesRememberedID(t *testing.T) {
	f := NewEchoFilter(10 * time.Second)
	f.Remember("alice:u1")

	if !f.Suppress("alice:u1") {
		t.Error("own update should be suppressed")
	}
	if f.Suppress("alice:u1") {
		t.Error("suppression must consume the id")
	}
}

func TestSuppressIgnoresForeignIDs(t *testing.T) {
	f := NewEchoFilter(10 * time.Second)
	f.Remember("alice:u1")

	if f.Suppress("bob:u2") {
		t.Error("someone else's update must never be suppressed")
	}
	if !f.Suppress("alice:u1") {
		t.Error("own update should still be suppressible")
	}
}

func TestSuppressExpiresAfterWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := NewEchoFilter(10 * time.Second)
	f.SetClock(func() time.Time { return now })

	f.Remember("alice:u1")
	now = now.Add(11 * time.Second)

	if f.Suppress("alice:u1") {
		t.Error("stale entry must not suppress")
	}
}

func TestEmptyIDIsNeverSuppressed(t *testing.T) {
	f := NewEchoFilter(10 * time.Second)
	f.Remember("")
	if f.Suppress("") {
		t.Error("empty id must not be suppressed")
	}
}
