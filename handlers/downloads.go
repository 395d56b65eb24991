package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"

	"tubeshelf/internal/database"
	"tubeshelf/models"
	"tubeshelf/services/downloads"
)

// downloadManager drives the optional external download runner.
type downloadManager interface {
	StartDownload(ctx context.Context, req downloads.StartRequest) error
	CancelDownload(videoID string) error
	GetDownloadStatus(videoID string) (models.DownloadStatus, bool)
	ListDownloaded() ([]models.DownloadedVideo, error)
}

var _ downloadManager = (*downloads.Service)(nil)

// downloadRecords is the persisted index of completed downloads.
type downloadRecords interface {
	ByVideoID(videoID string) (*models.DownloadedVideo, error)
	Delete(videoID string) error
}

var _ downloadRecords = (*database.DownloadRepository)(nil)

type DownloadsHandler struct {
	Service downloadManager
	Records downloadRecords
}

func NewDownloadsHandler(svc downloadManager, records downloadRecords) *DownloadsHandler {
	return &DownloadsHandler{Service: svc, Records: records}
}

type startDownloadRequest struct {
	VideoID    string `json:"videoId"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	SourceID   string `json:"sourceId"`
	SourceType string `json:"sourceType"`
}

// StartDownload queues a video for download. Without a configured runner
// the endpoint reports 501 so clients can hide the feature.
func (h *DownloadsHandler) StartDownload(w http.ResponseWriter, r *http.Request) {
	var req startDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.VideoID) == "" || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "videoId and url are required")
		return
	}

	err := h.Service.StartDownload(r.Context(), downloads.StartRequest{
		VideoID:    req.VideoID,
		Title:      req.Title,
		URL:        req.URL,
		SourceID:   req.SourceID,
		SourceType: req.SourceType,
	})
	if errors.Is(err, downloads.ErrNoRunner) {
		writeError(w, http.StatusNotImplemented, "no download runner configured")
		return
	}
	if err != nil {
		log.Printf("[downloads] start %s: %v", req.VideoID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"videoId": req.VideoID, "state": string(models.DownloadPending)})
}

// ListDownloads returns the archive index, newest first.
func (h *DownloadsHandler) ListDownloads(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Service.ListDownloaded()
	if err != nil {
		log.Printf("[downloads] list: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list downloads")
		return
	}
	if recs == nil {
		recs = []models.DownloadedVideo{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// GetDownload reports an in-flight status when the runner knows the id,
// otherwise the archived record.
func (h *DownloadsHandler) GetDownload(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]

	if status, ok := h.Service.GetDownloadStatus(videoID); ok {
		writeJSON(w, http.StatusOK, status)
		return
	}
	rec, err := h.Records.ByVideoID(videoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up download")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "download not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteDownload cancels an in-flight download if one exists and removes
// the archived record plus its file.
func (h *DownloadsHandler) DeleteDownload(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]

	if err := h.Service.CancelDownload(videoID); err != nil && !errors.Is(err, downloads.ErrNoRunner) {
		log.Printf("[downloads] cancel %s: %v", videoID, err)
	}

	rec, err := h.Records.ByVideoID(videoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up download")
		return
	}
	if rec != nil && rec.FilePath != "" {
		if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("[downloads] remove file %s: %v", rec.FilePath, err)
		}
	}
	if err := h.Records.Delete(videoID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete download record")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"videoId": videoID, "status": "deleted"})
}
