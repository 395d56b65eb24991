package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tubeshelf/services/thumbs"
)

type fakeThumbQueue struct {
	events chan thumbs.Event
	status thumbs.Status
	unsubs int
}

func (f *fakeThumbQueue) Subscribe() (string, <-chan thumbs.Event) { return "sub1", f.events }
func (f *fakeThumbQueue) Unsubscribe(id string)                    { f.unsubs++ }
func (f *fakeThumbQueue) Status() thumbs.Status                    { return f.status }

func TestEventsStreamsCompletions(t *testing.T) {
	q := &fakeThumbQueue{events: make(chan thumbs.Event, 1)}
	h := NewThumbnailsHandler(q)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/thumbnails/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	q.events <- thumbs.Event{VideoID: "vid1", ThumbnailURL: "/thumbnails/vid1.jpg"}
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	h.Events(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"videoId":"vid1"`) {
		t.Errorf("body = %q, want the completion event", body)
	}
	if q.unsubs != 1 {
		t.Errorf("unsubscribes = %d, want 1", q.unsubs)
	}
}

func TestEventsStopsWhenChannelCloses(t *testing.T) {
	q := &fakeThumbQueue{events: make(chan thumbs.Event)}
	h := NewThumbnailsHandler(q)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/thumbnails/events", nil)

	done := make(chan struct{})
	go func() {
		h.Events(rec, req)
		close(done)
	}()
	close(q.events)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return after channel close")
	}
}

func TestQueueStatus(t *testing.T) {
	q := &fakeThumbQueue{status: thumbs.Status{Queued: 3, InProgress: 2}}
	h := NewThumbnailsHandler(q)

	rec := httptest.NewRecorder()
	h.QueueStatus(rec, httptest.NewRequest(http.MethodGet, "/api/thumbnails/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"queued":3`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
