package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jamshare/backend/internal/models"
)

// readEvent scans one SSE event (name, data) from the stream, skipping
// heartbeat comments.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && event != "":
			return event, data
		}
	}
}

func TestSSEStreamDeliversSessionChanges(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession(t, "s", false)
	ts.mutate(t, id, models.MutateSessionRequest{Action: "join", ClientID: "host"})

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sessions/"+id+"/events?clientId=listener", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	event, _ := readEvent(t, reader)
	if event != "connected" {
		t.Fatalf("expected connected event first, got %q", event)
	}

	rec := ts.mutate(t, id, models.MutateSessionRequest{
		Action:          "enqueue",
		ClientID:        "host",
		ExpectedVersion: versionPtr(1),
		Song:            &models.SongPayload{ID: "f1", Name: "One"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("enqueue: got %d (%s)", rec.Code, rec.Body.String())
	}

	for {
		event, data := readEvent(t, reader)
		if event != "session_changed" {
			t.Fatalf("expected session_changed, got %q", event)
		}
		var payload struct {
			Version  int64    `json:"version"`
			ClientID string   `json:"clientId"`
			Changed  []string `json:"changed"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			t.Fatalf("decode payload %q: %v", data, err)
		}
		// Skip client-count notifications from the listener's own presence.
		if len(payload.Changed) == 1 && payload.Changed[0] == "clientCount" {
			continue
		}
		if payload.Version != 2 || payload.ClientID != "host" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		if len(payload.Changed) != 1 || payload.Changed[0] != "queue" {
			t.Fatalf("expected changed [queue], got %v", payload.Changed)
		}
		return
	}
}

func TestSSEStreamUnknownSessionIs404(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/sessions/nope/events", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
