package database

import (
	"path/filepath"
	"testing"
	"time"

	"tubeshelf/models"
)

// setupTestDB creates a fresh database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDBCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "deep", "test.db")
	db, err := NewDB(Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	db.Close()
}

func TestDownloadUpsertAndLookups(t *testing.T) {
	db := setupTestDB(t)
	rec := &models.DownloadedVideo{
		VideoID:      "vid00000001",
		Title:        "Kept Video",
		FilePath:     "/downloads/kept.mp4",
		SourceType:   "remote_channel",
		SourceID:     "ch1",
		DownloadedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		Duration:     120,
	}
	if err := db.Downloads.Upsert(rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := db.Downloads.ByVideoID("vid00000001")
	if err != nil {
		t.Fatalf("ByVideoID() error = %v", err)
	}
	if got == nil || got.Title != "Kept Video" || got.FilePath != "/downloads/kept.mp4" {
		t.Errorf("ByVideoID() = %+v", got)
	}

	byPath, err := db.Downloads.ByFilePath("/downloads/kept.mp4")
	if err != nil {
		t.Fatalf("ByFilePath() error = %v", err)
	}
	if byPath == nil || byPath.VideoID != "vid00000001" {
		t.Errorf("ByFilePath() = %+v", byPath)
	}

	// upsert replaces, never duplicates
	rec.Title = "Renamed"
	if err := db.Downloads.Upsert(rec); err != nil {
		t.Fatal(err)
	}
	all, err := db.Downloads.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Title != "Renamed" {
		t.Errorf("List() after re-upsert = %+v", all)
	}
}

func TestDownloadAbsentIsNilNil(t *testing.T) {
	db := setupTestDB(t)
	got, err := db.Downloads.ByVideoID("nope")
	if err != nil {
		t.Fatalf("ByVideoID() error = %v", err)
	}
	if got != nil {
		t.Errorf("ByVideoID() = %+v, want nil", got)
	}
}

func TestProgressRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Progress.Upsert(models.WatchProgress{
		VideoID:         "vid1",
		PositionSeconds: 91,
		DurationSeconds: 300,
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	p, err := db.Progress.Get("vid1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p == nil || p.PositionSeconds != 91 || p.Completed {
		t.Errorf("Get() = %+v", p)
	}
	if p.LastWatchedAt.IsZero() {
		t.Error("LastWatchedAt not defaulted on upsert")
	}

	// advancing position overwrites
	if err := db.Progress.Upsert(models.WatchProgress{VideoID: "vid1", PositionSeconds: 290, DurationSeconds: 300, Completed: true}); err != nil {
		t.Fatal(err)
	}
	p, _ = db.Progress.Get("vid1")
	if p.PositionSeconds != 290 || !p.Completed {
		t.Errorf("Get() after overwrite = %+v", p)
	}

	if missing, err := db.Progress.Get("other"); err != nil || missing != nil {
		t.Errorf("Get(absent) = %+v, %v", missing, err)
	}
}
