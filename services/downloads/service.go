// Package downloads is the consuming side of the download subsystem: it
// triggers and queries jobs and reads the downloaded-video index, but never
// implements the download mechanics itself.
package downloads

import (
	"context"
	"errors"

	"tubeshelf/models"
)

// ErrNoRunner means no download executor is wired into this deployment.
var ErrNoRunner = errors.New("downloads: no runner configured")

// StartRequest is everything the executor needs to begin a download.
type StartRequest struct {
	VideoID    string `json:"videoId"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	SourceID   string `json:"sourceId"`
	SourceType string `json:"sourceType"`
}

// Runner is the control surface of the external download executor.
type Runner interface {
	Start(ctx context.Context, req StartRequest) error
	Cancel(videoID string) error
	Status(videoID string) (models.DownloadStatus, bool)
}

// Index is the queryable downloaded-video record index.
type Index interface {
	ByVideoID(videoID string) (*models.DownloadedVideo, error)
	ByFilePath(path string) (*models.DownloadedVideo, error)
	List() ([]models.DownloadedVideo, error)
}

// Service fronts the runner and the index with one interface for handlers.
type Service struct {
	runner Runner
	index  Index
}

// NewService wires the facade; runner may be nil when no executor is present.
func NewService(runner Runner, index Index) *Service {
	return &Service{runner: runner, index: index}
}

// StartDownload asks the executor to begin a job.
func (s *Service) StartDownload(ctx context.Context, req StartRequest) error {
	if s.runner == nil {
		return ErrNoRunner
	}
	return s.runner.Start(ctx, req)
}

// CancelDownload asks the executor to stop a job.
func (s *Service) CancelDownload(videoID string) error {
	if s.runner == nil {
		return ErrNoRunner
	}
	return s.runner.Cancel(videoID)
}

// GetDownloadStatus reports the executor's view of a job.
func (s *Service) GetDownloadStatus(videoID string) (models.DownloadStatus, bool) {
	if s.runner == nil {
		return models.DownloadStatus{}, false
	}
	return s.runner.Status(videoID)
}

// ListDownloaded returns the full index, newest first.
func (s *Service) ListDownloaded() ([]models.DownloadedVideo, error) {
	return s.index.List()
}
