package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"tubeshelf/services/thumbs"
)

// thumbEvents exposes the generation queue's completion stream.
type thumbEvents interface {
	Subscribe() (string, <-chan thumbs.Event)
	Unsubscribe(id string)
	Status() thumbs.Status
}

var _ thumbEvents = (*thumbs.Queue)(nil)

type ThumbnailsHandler struct {
	Queue thumbEvents
}

func NewThumbnailsHandler(q thumbEvents) *ThumbnailsHandler {
	return &ThumbnailsHandler{Queue: q}
}

// Events streams thumbnail completions as server-sent events. Clients
// refresh the poster for each videoId as it arrives.
func (h *ThumbnailsHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, events := h.Queue.Subscribe()
	defer h.Queue.Unsubscribe(id)

	// tell the client the stream is live before the first event
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// QueueStatus reports how many jobs are pending and in flight.
func (h *ThumbnailsHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Queue.Status())
}
