package handlers

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"tubeshelf/config"
	"tubeshelf/models"
	"tubeshelf/services/catalog"
	"tubeshelf/services/paginator"
	"tubeshelf/services/playback"
)

type sourceConfig interface {
	Sources() []models.SourceDescriptor
	Source(id string) (models.SourceDescriptor, bool)
}

var _ sourceConfig = (*config.Manager)(nil)

// pageRecorder receives every served page so playback can resolve ids the
// client got from a listing.
type pageRecorder interface {
	Remember([]models.VideoEntry)
}

var _ pageRecorder = (*playback.Service)(nil)

// thumbScheduler enqueues thumbnail generation for local files.
type thumbScheduler interface {
	Schedule(videoID, sourcePath string)
	ThumbnailPath(videoID string) string
	ThumbnailURL(videoID string) string
}

type VideosHandler struct {
	Engine   *paginator.Engine
	Cfg      sourceConfig
	Recorder pageRecorder
	Thumbs   thumbScheduler
}

func NewVideosHandler(engine *paginator.Engine, cfg sourceConfig) *VideosHandler {
	return &VideosHandler{Engine: engine, Cfg: cfg}
}

// SetRecorder wires the playback service so served pages become resolvable.
func (h *VideosHandler) SetRecorder(rec pageRecorder) {
	h.Recorder = rec
}

// SetThumbScheduler enables opportunistic thumbnail generation on listing.
func (h *VideosHandler) SetThumbScheduler(t thumbScheduler) {
	h.Thumbs = t
}

// GetVideos serves one page of a source, or one folder level when the path
// parameter is present.
func (h *VideosHandler) GetVideos(w http.ResponseWriter, r *http.Request) {
	sourceID := strings.TrimSpace(r.URL.Query().Get("sourceId"))
	if sourceID == "" {
		http.Error(w, "sourceId parameter required", http.StatusBadRequest)
		return
	}
	src, ok := h.Cfg.Source(sourceID)
	if !ok {
		http.Error(w, "unknown source", http.StatusNotFound)
		return
	}

	var (
		result *models.PageResult
		err    error
	)
	if rel := strings.TrimSpace(r.URL.Query().Get("path")); rel != "" {
		result, err = h.Engine.Browse(r.Context(), src, rel)
	} else {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			if n, perr := strconv.Atoi(raw); perr == nil {
				page = n
			}
		}
		result, err = h.Engine.GetPage(r.Context(), src, page)
	}
	if err != nil {
		log.Printf("[videos] source %s: %v", sourceID, err)
		http.Error(w, err.Error(), statusForKind(catalog.Classify(err)))
		return
	}

	h.decorate(result.Items)
	if h.Recorder != nil {
		h.Recorder.Remember(result.Items)
	}
	writeJSON(w, http.StatusOK, result)
}

// GetSources serves the first page of every configured source plus a
// diagnostic entry for each source that failed.
func (h *VideosHandler) GetSources(w http.ResponseWriter, r *http.Request) {
	sections, diags := h.Engine.FrontPage(r.Context())
	for i := range sections {
		if sections[i].Page != nil {
			h.decorate(sections[i].Page.Items)
			if h.Recorder != nil {
				h.Recorder.Remember(sections[i].Page.Items)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sources":     sections,
		"diagnostics": diags,
	})
}

// decorate fills thumbnail URLs for local entries and schedules generation
// for the ones that have no thumbnail yet. Misses are not waited on: the
// client learns about finished thumbnails over the event stream.
func (h *VideosHandler) decorate(items []models.VideoEntry) {
	if h.Thumbs == nil {
		return
	}
	for i := range items {
		it := &items[i]
		if it.Kind == models.VideoRemote || it.ThumbnailRef != "" {
			continue
		}
		if _, err := os.Stat(h.Thumbs.ThumbnailPath(it.ID)); err == nil {
			it.ThumbnailRef = h.Thumbs.ThumbnailURL(it.ID)
			continue
		}
		if it.IsAvailable && it.PlaybackLocator != "" {
			h.Thumbs.Schedule(it.ID, it.PlaybackLocator)
		}
	}
}

func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrKindNotFound:
		return http.StatusNotFound
	case models.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case models.ErrKindForbidden:
		return http.StatusForbidden
	case models.ErrKindQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
