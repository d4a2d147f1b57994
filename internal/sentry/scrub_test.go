package sentry

import (
	"testing"

	"github.com/getsentry/sentry-go"
)

func TestScrubEventRedactsSensitiveHeaders(t *testing.T) {
	event := &sentry.Event{
		Request: &sentry.Request{
			Headers: map[string]string{
				"Authorization": "Bearer secret",
				"Cookie":        "sid=abc",
				"Content-Type":  "application/json",
			},
		},
	}

	scrubbed := ScrubEvent(event, nil)

	if scrubbed.Request.Headers["Authorization"] != "[Filtered]" {
		t.Error("Authorization header not redacted")
	}
	if scrubbed.Request.Headers["Cookie"] != "[Filtered]" {
		t.Error("Cookie header not redacted")
	}
	if scrubbed.Request.Headers["Content-Type"] != "application/json" {
		t.Error("harmless header should be preserved")
	}
}

func TestScrubEventStripsRequestBody(t *testing.T) {
	event := &sentry.Event{
		Request: &sentry.Request{
			Data: `{"action":"enqueue","clientId":"alice"}`,
		},
	}

	scrubbed := ScrubEvent(event, nil)

	if scrubbed.Request.Data != "" {
		t.Errorf("request body not stripped: %q", scrubbed.Request.Data)
	}
}

func TestScrubEventFiltersTagsAndBreadcrumbs(t *testing.T) {
	event := &sentry.Event{
		Tags: map[string]string{
			"clientId":   "alice",
			"session_id": "happy-dog-7",
		},
		Breadcrumbs: []*sentry.Breadcrumb{
			{Data: map[string]interface{}{"updateId": "alice:u1", "path": "/api/sessions"}},
		},
	}

	scrubbed := ScrubEvent(event, nil)

	if scrubbed.Tags["clientId"] != "[Filtered]" {
		t.Error("clientId tag not filtered")
	}
	if scrubbed.Tags["session_id"] != "happy-dog-7" {
		t.Error("session id tag should be preserved")
	}
	if scrubbed.Breadcrumbs[0].Data["updateId"] != "[Filtered]" {
		t.Error("updateId breadcrumb not filtered")
	}
	if scrubbed.Breadcrumbs[0].Data["path"] != "/api/sessions" {
		t.Error("harmless breadcrumb data should be preserved")
	}
}

func TestScrubEventHandlesNilRequest(t *testing.T) {
	event := &sentry.Event{}
	if scrubbed := ScrubEvent(event, nil); scrubbed == nil {
		t.Fatal("event without a request must pass through")
	}
}
