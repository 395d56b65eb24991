package models

import "time"

// DownloadedVideo is one row of the downloaded-archive index. The download
// subsystem owns these records; the aggregation core only reads them.
type DownloadedVideo struct {
	VideoID       string    `json:"videoId"`
	Title         string    `json:"title"`
	FilePath      string    `json:"filePath"`
	SourceType    string    `json:"sourceType"`
	SourceID      string    `json:"sourceId"`
	DownloadedAt  time.Time `json:"downloadedAt"`
	Duration      int       `json:"duration"`
	ThumbnailPath string    `json:"thumbnailPath,omitempty"`
}

// DownloadState is the lifecycle of one download job.
type DownloadState string

const (
	DownloadPending   DownloadState = "pending"
	DownloadRunning   DownloadState = "running"
	DownloadCompleted DownloadState = "completed"
	DownloadFailed    DownloadState = "failed"
	DownloadCanceled  DownloadState = "canceled"
)

// DownloadStatus is the control-surface view of an in-flight or finished job.
type DownloadStatus struct {
	VideoID  string        `json:"videoId"`
	State    DownloadState `json:"state"`
	Progress float64       `json:"progress"`
	Error    string        `json:"error,omitempty"`
}

// WatchProgress is a persisted resume position for one video.
type WatchProgress struct {
	VideoID         string    `json:"videoId"`
	PositionSeconds int       `json:"positionSeconds"`
	DurationSeconds int       `json:"durationSeconds"`
	Completed       bool      `json:"completed"`
	LastWatchedAt   time.Time `json:"lastWatchedAt"`
}
