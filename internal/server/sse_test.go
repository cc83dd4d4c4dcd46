package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/issuefacets/internal/events"
	"github.com/alfredjeanlab/issuefacets/internal/model"
)

func TestSSEHub_BroadcastAndReceive(t *testing.T) {
	hub := newSSEHub()

	client := hub.subscribe(nil) // all topics
	defer hub.unsubscribe(client)

	hub.broadcast(events.TopicIssueCreated, []byte(`{"key":"AY-1"}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != events.TopicIssueCreated {
			t.Fatalf("expected topic=%q, got %q", events.TopicIssueCreated, evt.Topic)
		}
		if string(evt.Data) != `{"key":"AY-1"}` {
			t.Fatalf("unexpected data %q", evt.Data)
		}
		if evt.ID != 1 {
			t.Fatalf("expected id=1, got %d", evt.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSSEHub_TopicFiltering(t *testing.T) {
	hub := newSSEHub()

	client := hub.subscribe([]string{"facets.workspace.*", "facets.settings.>"})
	defer hub.unsubscribe(client)

	hub.broadcast(events.TopicIssueCreated, []byte(`{}`))
	hub.broadcast(events.TopicWorkspaceUpdated, []byte(`{}`))
	hub.broadcast(events.TopicNewCodePeriodUpdated, []byte(`{}`))

	var got []string
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case evt := <-client.ch:
			got = append(got, evt.Topic)
		case <-timeout:
			t.Fatalf("expected 2 events, got %v", got)
		}
	}
	if got[0] != events.TopicWorkspaceUpdated || got[1] != events.TopicNewCodePeriodUpdated {
		t.Fatalf("unexpected topics %v", got)
	}

	select {
	case evt := <-client.ch:
		t.Fatalf("unexpected event: topic=%q", evt.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_Unsubscribe(t *testing.T) {
	hub := newSSEHub()

	client := hub.subscribe(nil)
	hub.unsubscribe(client)

	hub.broadcast(events.TopicIssueCreated, []byte(`{}`))

	select {
	case <-client.ch:
		t.Fatal("should not receive events after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventRing(t *testing.T) {
	r := newEventRing(4)
	if got := r.since(0); len(got) != 0 {
		t.Fatalf("empty ring returned %d events", len(got))
	}

	for id := uint64(1); id <= 3; id++ {
		r.push(sseEvent{ID: id})
	}
	if got := r.since(1); len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("since(1) = %v, want IDs [2 3]", ids(got))
	}

	// Wrap: 6 pushes into 4 slots keeps IDs 3..6.
	for id := uint64(4); id <= 6; id++ {
		r.push(sseEvent{ID: id})
	}
	got := r.since(0)
	if len(got) != 4 || got[0].ID != 3 || got[3].ID != 6 {
		t.Fatalf("since(0) after wrap = %v, want IDs [3 4 5 6]", ids(got))
	}
}

func TestSSEHub_RingBufferWrap(t *testing.T) {
	hub := newSSEHub()
	for range sseRingBufferSize + 100 {
		hub.broadcast(events.TopicIssueCreated, []byte(`{}`))
	}

	evts := hub.ring.since(0)
	if len(evts) != sseRingBufferSize {
		t.Fatalf("expected %d events, got %d", sseRingBufferSize, len(evts))
	}
	if evts[0].ID != 101 {
		t.Fatalf("expected oldest event ID=101, got %d", evts[0].ID)
	}
}

func ids(evts []*sseEvent) []uint64 {
	out := make([]uint64, len(evts))
	for i, e := range evts {
		out[i] = e.ID
	}
	return out
}

func TestMatchTopicPattern(t *testing.T) {
	for _, tc := range []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"facets.issue.created", "facets.issue.created", true},
		{"facets.issue.created", "facets.issue.deleted", false},
		{"facets.issue.*", "facets.issue.created", true},
		{"facets.issue.*", "facets.workspace.updated", false},
		{"facets.>", "facets.settings.new_code_period.updated", true},
		{"facets.>", "facets", false},
		{"facets.>", "other.topic", false},
		{"*.*.*", "facets.issue.created", true},
		{"*.*.*", "facets.issue", false},
	} {
		t.Run(tc.pattern+"_"+tc.topic, func(t *testing.T) {
			if got := matchTopicPattern(tc.pattern, tc.topic); got != tc.want {
				t.Fatalf("matchTopicPattern(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
			}
		})
	}
}

// stream opens an SSE request, runs during while it is connected and returns
// everything written once the request is cancelled.
func stream(t *testing.T, handler http.Handler, path string, header http.Header, during func()) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	// Give the handler time to register the subscription.
	time.Sleep(50 * time.Millisecond)
	during()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
	return rec
}

func TestHandleEventStream_Format(t *testing.T) {
	srv, _, handler := newTestServer()

	rec := stream(t, handler, "/v1/events/stream", nil, func() {
		srv.sseHub.broadcast(events.TopicIssueDeleted, []byte(`{"key":"AY-fmt"}`))
	})

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected Content-Type=text/event-stream, got %q", ct)
	}

	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	var id, event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "id:"):
			id = strings.TrimPrefix(line, "id:")
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		}
	}
	if id != "1" {
		t.Fatalf("expected id 1, got %q", id)
	}
	if event != events.TopicIssueDeleted {
		t.Fatalf("expected event=%s, got %q", events.TopicIssueDeleted, event)
	}
	if !json.Valid([]byte(data)) || data != `{"key":"AY-fmt"}` {
		t.Fatalf("unexpected data %q", data)
	}
}

func TestHandleEventStream_TopicFilter(t *testing.T) {
	srv, _, handler := newTestServer()

	rec := stream(t, handler, "/v1/events/stream?topics=facets.workspace.*", nil, func() {
		srv.sseHub.broadcast(events.TopicIssueCreated, []byte(`{}`))
		srv.sseHub.broadcast(events.TopicWorkspaceUpdated, []byte(`{"workspace":{"needIssueSync":true}}`))
	})

	body := rec.Body.String()
	if strings.Contains(body, events.TopicIssueCreated) {
		t.Fatalf("expected issue event to be filtered out, got:\n%s", body)
	}
	if !strings.Contains(body, "event:"+events.TopicWorkspaceUpdated) {
		t.Fatalf("expected workspace event in body, got:\n%s", body)
	}
}

func TestHandleEventStream_LastEventID(t *testing.T) {
	srv, _, handler := newTestServer()

	srv.sseHub.broadcast(events.TopicIssueCreated, []byte(`{"n":1}`))
	srv.sseHub.broadcast(events.TopicIssueCreated, []byte(`{"n":2}`))
	srv.sseHub.broadcast(events.TopicIssueDeleted, []byte(`{"n":3}`))

	rec := stream(t, handler, "/v1/events/stream", http.Header{"Last-Event-Id": {"1"}}, func() {})

	body := rec.Body.String()
	if strings.Contains(body, `data:{"n":1}`) {
		t.Fatalf("expected event 1 to be skipped, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"n":2}`) || !strings.Contains(body, `data:{"n":3}`) {
		t.Fatalf("expected events 2 and 3 in body, got:\n%s", body)
	}
}

func TestHandleEventStream_WorkspaceUpdate(t *testing.T) {
	_, _, handler := newTestServer()

	rec := stream(t, handler, "/v1/events/stream", nil, func() {
		resp := doJSON(t, handler, http.MethodPut, "/v1/workspace", model.Workspace{NeedIssueSync: true})
		requireStatus(t, resp, http.StatusOK)
	})

	body := rec.Body.String()
	if !strings.Contains(body, "event:"+events.TopicWorkspaceUpdated) {
		t.Fatalf("expected workspace event from PUT /v1/workspace, got:\n%s", body)
	}
	if !strings.Contains(body, `"needIssueSync":true`) {
		t.Fatalf("expected payload with needIssueSync, got:\n%s", body)
	}
}
