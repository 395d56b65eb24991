package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"tubeshelf/internal/database"
	"tubeshelf/models"
	"tubeshelf/services/playback"
)

// playbackResolver routes a video id to something the client can play.
type playbackResolver interface {
	Resolve(ctx context.Context, videoID string) (*models.VideoEntry, bool, error)
}

var _ playbackResolver = (*playback.Service)(nil)

// progressStore persists resume positions.
type progressStore interface {
	Upsert(p models.WatchProgress) error
	Get(videoID string) (*models.WatchProgress, error)
}

var _ progressStore = (*database.ProgressRepository)(nil)

type PlaybackHandler struct {
	Resolver playbackResolver
	Progress progressStore
}

func NewPlaybackHandler(resolver playbackResolver) *PlaybackHandler {
	return &PlaybackHandler{Resolver: resolver}
}

// SetProgressStore wires resume-position persistence.
func (h *PlaybackHandler) SetProgressStore(store progressStore) {
	h.Progress = store
}

// GetPlayback resolves one video id. An id that resolves nowhere is a 404,
// not a 500: the client shows an empty player state and moves on.
func (h *PlaybackHandler) GetPlayback(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]

	entry, found, err := h.Resolver.Resolve(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, playback.ErrEmptyID) {
			writeError(w, http.StatusBadRequest, "video id required")
			return
		}
		log.Printf("[playback] resolve %s: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type progressRequest struct {
	PositionSeconds int  `json:"positionSeconds"`
	DurationSeconds int  `json:"durationSeconds"`
	Completed       bool `json:"completed"`
}

// UpdateProgress stores the resume position for a video.
func (h *PlaybackHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	videoID := strings.TrimSpace(mux.Vars(r)["id"])
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "video id required")
		return
	}
	if h.Progress == nil {
		writeError(w, http.StatusServiceUnavailable, "progress store unavailable")
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PositionSeconds < 0 {
		writeError(w, http.StatusBadRequest, "positionSeconds must not be negative")
		return
	}

	prog := models.WatchProgress{
		VideoID:         videoID,
		PositionSeconds: req.PositionSeconds,
		DurationSeconds: req.DurationSeconds,
		Completed:       req.Completed,
		LastWatchedAt:   time.Now(),
	}
	if err := h.Progress.Upsert(prog); err != nil {
		log.Printf("[playback] progress upsert %s: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, "failed to store progress")
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

// GetProgress returns the stored resume position for a video.
func (h *PlaybackHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	if h.Progress == nil {
		writeError(w, http.StatusServiceUnavailable, "progress store unavailable")
		return
	}
	prog, err := h.Progress.Get(videoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}
	if prog == nil {
		writeError(w, http.StatusNotFound, "no progress recorded")
		return
	}
	writeJSON(w, http.StatusOK, prog)
}
