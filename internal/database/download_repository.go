package database

import (
	"database/sql"
	"errors"

	"tubeshelf/models"
)

// DownloadRepository is the queryable index of downloaded-video records. The
// download subsystem writes it; the aggregation core reads it.
type DownloadRepository struct {
	conn *sql.DB
}

// Upsert inserts or replaces the record for a video id.
func (r *DownloadRepository) Upsert(rec *models.DownloadedVideo) error {
	_, err := r.conn.Exec(`
		INSERT INTO downloaded_videos
			(video_id, title, file_path, source_type, source_id, downloaded_at, duration, thumbnail_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			title = excluded.title,
			file_path = excluded.file_path,
			source_type = excluded.source_type,
			source_id = excluded.source_id,
			downloaded_at = excluded.downloaded_at,
			duration = excluded.duration,
			thumbnail_path = excluded.thumbnail_path`,
		rec.VideoID, rec.Title, rec.FilePath, rec.SourceType, rec.SourceID,
		rec.DownloadedAt, rec.Duration, rec.ThumbnailPath)
	return err
}

// ByVideoID looks a record up by its primary key; (nil, nil) when absent.
func (r *DownloadRepository) ByVideoID(videoID string) (*models.DownloadedVideo, error) {
	return r.scanOne(r.conn.QueryRow(`
		SELECT video_id, title, file_path, source_type, source_id, downloaded_at, duration, thumbnail_path
		FROM downloaded_videos WHERE video_id = ?`, videoID))
}

// ByFilePath is the reverse lookup used by the archive overlay; (nil, nil)
// when absent.
func (r *DownloadRepository) ByFilePath(path string) (*models.DownloadedVideo, error) {
	return r.scanOne(r.conn.QueryRow(`
		SELECT video_id, title, file_path, source_type, source_id, downloaded_at, duration, thumbnail_path
		FROM downloaded_videos WHERE file_path = ?`, path))
}

// List returns every record, newest first.
func (r *DownloadRepository) List() ([]models.DownloadedVideo, error) {
	rows, err := r.conn.Query(`
		SELECT video_id, title, file_path, source_type, source_id, downloaded_at, duration, thumbnail_path
		FROM downloaded_videos ORDER BY downloaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.DownloadedVideo
	for rows.Next() {
		var rec models.DownloadedVideo
		if err := rows.Scan(&rec.VideoID, &rec.Title, &rec.FilePath, &rec.SourceType,
			&rec.SourceID, &rec.DownloadedAt, &rec.Duration, &rec.ThumbnailPath); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a record.
func (r *DownloadRepository) Delete(videoID string) error {
	_, err := r.conn.Exec(`DELETE FROM downloaded_videos WHERE video_id = ?`, videoID)
	return err
}

func (r *DownloadRepository) scanOne(row *sql.Row) (*models.DownloadedVideo, error) {
	var rec models.DownloadedVideo
	err := row.Scan(&rec.VideoID, &rec.Title, &rec.FilePath, &rec.SourceType,
		&rec.SourceID, &rec.DownloadedAt, &rec.Duration, &rec.ThumbnailPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
