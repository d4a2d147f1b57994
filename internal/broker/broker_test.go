package broker

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	b := New()
	ch := b.Subscribe("s1")
	defer b.Unsubscribe("s1", ch)

	b.Publish(Event{SessionID: "s1", Version: 3, UpdateID: "u1", Changed: []string{"queue"}})

	select {
	case ev := <-ch:
		if ev.Version != 3 || ev.UpdateID != "u1" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected an event")
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()
	ch1 := b.Subscribe("s1")
	ch2 := b.Subscribe("s1")
	defer b.Unsubscribe("s1", ch1)
	defer b.Unsubscribe("s1", ch2)

	b.Publish(Event{SessionID: "s1", Version: 1})

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("subscriber %d did not receive the event", i)
		}
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	b := New()
	ch := b.Subscribe("s1")
	defer b.Unsubscribe("s1", ch)

	b.Publish(Event{SessionID: "s2", Version: 1})

	select {
	case ev := <-ch:
		t.Fatalf("received an event for another session: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribedChannelStopsReceiving(t *testing.T) {
	b := New()
	ch := b.Subscribe("s1")
	b.Unsubscribe("s1", ch)

	b.Publish(Event{SessionID: "s1", Version: 1})

	select {
	case ev := <-ch:
		t.Fatalf("received an event after unsubscribe: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberSeesLatestEvent(t *testing.T) {
	b := New()
	ch := b.Subscribe("s1")
	defer b.Unsubscribe("s1", ch)

	// The buffer holds one event; newer publishes replace it.
	b.Publish(Event{SessionID: "s1", Version: 1})
	b.Publish(Event{SessionID: "s1", Version: 2})
	b.Publish(Event{SessionID: "s1", Version: 3})

	select {
	case ev := <-ch:
		if ev.Version != 3 {
			t.Errorf("expected the latest event (version 3), got %d", ev.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected an event")
	}
}

func TestPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	b := New()
	done := make(chan struct{})
	go func() {
		b.Publish(Event{SessionID: "nobody", Version: 1})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("publish blocked with no subscribers")
	}
}
