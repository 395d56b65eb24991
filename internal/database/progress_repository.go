package database

import (
	"database/sql"
	"errors"
	"time"

	"tubeshelf/models"
)

// ProgressRepository persists per-video resume positions.
type ProgressRepository struct {
	conn *sql.DB
}

// Upsert records the latest position for a video.
func (r *ProgressRepository) Upsert(p models.WatchProgress) error {
	if p.LastWatchedAt.IsZero() {
		p.LastWatchedAt = time.Now()
	}
	_, err := r.conn.Exec(`
		INSERT INTO watch_progress (video_id, position_seconds, duration_seconds, completed, last_watched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			position_seconds = excluded.position_seconds,
			duration_seconds = excluded.duration_seconds,
			completed = excluded.completed,
			last_watched_at = excluded.last_watched_at`,
		p.VideoID, p.PositionSeconds, p.DurationSeconds, p.Completed, p.LastWatchedAt)
	return err
}

// Get returns the stored progress for a video; (nil, nil) when absent.
func (r *ProgressRepository) Get(videoID string) (*models.WatchProgress, error) {
	var p models.WatchProgress
	err := r.conn.QueryRow(`
		SELECT video_id, position_seconds, duration_seconds, completed, last_watched_at
		FROM watch_progress WHERE video_id = ?`, videoID).
		Scan(&p.VideoID, &p.PositionSeconds, &p.DurationSeconds, &p.Completed, &p.LastWatchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
