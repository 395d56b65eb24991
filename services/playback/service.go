// Package playback resolves a requested video identifier to either a
// downloaded local file or a remote stream, with resume data merged in.
package playback

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"tubeshelf/models"
	"tubeshelf/services/catalog"
	"tubeshelf/services/library"
)

// ErrEmptyID is the only hard error the router surfaces: a request with no
// identifier at all. Everything else resolves to a soft "not found".
var ErrEmptyID = errors.New("playback: empty video id")

// remoteIDRe matches the catalog's fixed-length video id shape.
var remoteIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

type downloadIndex interface {
	ByVideoID(videoID string) (*models.DownloadedVideo, error)
}

type progressStore interface {
	Get(videoID string) (*models.WatchProgress, error)
}

type localResolver interface {
	Resolve(id string) (string, bool)
	ResolveByPath(path string) (string, bool)
}

type remoteFetcher interface {
	GetItemDetails(ctx context.Context, videoID string) (*catalog.ItemDetails, error)
}

// Service is the playback resolution router. It also owns the
// currently-loaded video index: handlers feed it the entries of every page
// they serve, and resolution falls back to that set for identifiers that fit
// neither the local nor the remote shape. Readers get snapshots; staleness
// only costs fallback-matching completeness, never playback correctness.
type Service struct {
	fs       afero.Fs
	index    downloadIndex
	progress progressStore
	scanner  localResolver
	remote   remoteFetcher

	mu     sync.RWMutex
	loaded map[string]models.VideoEntry
}

// NewService wires the router. index, progress and remote may be nil; each
// missing collaborator just disables its branch gracefully.
func NewService(fs afero.Fs, index downloadIndex, progress progressStore, scanner localResolver, remote remoteFetcher) *Service {
	return &Service{
		fs:       fs,
		index:    index,
		progress: progress,
		scanner:  scanner,
		remote:   remote,
		loaded:   make(map[string]models.VideoEntry),
	}
}

// Remember adds page entries to the currently-loaded set.
func (s *Service) Remember(entries []models.VideoEntry) {
	s.mu.Lock()
	for _, e := range entries {
		if e.ID != "" {
			s.loaded[e.ID] = e
		}
	}
	s.mu.Unlock()
}

// Resolve routes one playback request. found=false is the soft miss: the
// caller renders an empty state instead of crashing. Only an empty id is a
// hard error.
func (s *Service) Resolve(ctx context.Context, videoID string) (*models.VideoEntry, bool, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, false, ErrEmptyID
	}

	// 1) downloaded override: a local copy makes the remote/local
	// distinction invisible to the caller
	if entry, ok := s.resolveDownloaded(videoID); ok {
		return s.withProgress(entry), true, nil
	}

	// 2) dispatch on the identifier's structural form
	switch {
	case library.IsLocalID(videoID):
		if entry, ok := s.resolveLocal(videoID); ok {
			return s.withProgress(entry), true, nil
		}
	case remoteIDRe.MatchString(videoID):
		if entry, ok := s.resolveRemote(ctx, videoID); ok {
			return s.withProgress(entry), true, nil
		}
	default:
		if entry, ok := s.resolveLegacy(videoID); ok {
			return s.withProgress(entry), true, nil
		}
	}
	return nil, false, nil
}

func (s *Service) resolveDownloaded(videoID string) (*models.VideoEntry, bool) {
	if s.index == nil {
		return nil, false
	}
	rec, err := s.index.ByVideoID(videoID)
	if err != nil {
		log.Printf("[playback] download index lookup %s: %v", videoID, err)
		return nil, false
	}
	if rec == nil {
		return nil, false
	}
	if exists, _ := afero.Exists(s.fs, rec.FilePath); !exists {
		// stale record: the file is gone, fall through to live dispatch
		log.Printf("[playback] downloaded file missing for %s, falling through", videoID)
		return nil, false
	}
	entry := &models.VideoEntry{
		ID:              rec.VideoID,
		Kind:            models.VideoDownloaded,
		Title:           rec.Title,
		ThumbnailRef:    rec.ThumbnailPath,
		DurationSeconds: rec.Duration,
		PlaybackLocator: rec.FilePath,
		SourceID:        rec.SourceID,
		IsAvailable:     true,
	}
	// carry over navigation context when the video is on a loaded page
	s.mu.RLock()
	if known, ok := s.loaded[videoID]; ok {
		entry.SourceTitle = known.SourceTitle
		if entry.Title == "" {
			entry.Title = known.Title
		}
	}
	s.mu.RUnlock()
	return entry, true
}

func (s *Service) resolveLocal(videoID string) (*models.VideoEntry, bool) {
	path, ok := s.scanner.Resolve(videoID)
	if !ok {
		return nil, false
	}
	if exists, _ := afero.Exists(s.fs, path); !exists {
		return nil, false
	}
	entry := &models.VideoEntry{
		ID:              videoID,
		Kind:            models.VideoLocal,
		Title:           titleFromPath(path),
		PlaybackLocator: path,
		IsAvailable:     true,
	}
	s.mu.RLock()
	if known, ok := s.loaded[videoID]; ok {
		*entry = known
	}
	s.mu.RUnlock()
	return entry, true
}

func (s *Service) resolveRemote(ctx context.Context, videoID string) (*models.VideoEntry, bool) {
	if s.remote == nil {
		return nil, false
	}
	details, err := s.remote.GetItemDetails(ctx, videoID)
	if err != nil {
		log.Printf("[playback] remote resolve %s failed (%s): %v", videoID, catalog.Classify(err), err)
		return nil, false
	}
	entry := &models.VideoEntry{
		ID:              details.VideoID,
		Kind:            models.VideoRemote,
		Title:           details.Title,
		ThumbnailRef:    details.ThumbnailURL,
		DurationSeconds: details.DurationSeconds,
		PlaybackLocator: "https://www.youtube.com/watch?v=" + details.VideoID,
		SourceTitle:     details.ChannelTitle,
		IsAvailable:     true,
	}
	s.mu.RLock()
	if known, ok := s.loaded[videoID]; ok {
		entry.SourceID = known.SourceID
		if known.SourceTitle != "" {
			entry.SourceTitle = known.SourceTitle
		}
	}
	s.mu.RUnlock()
	return entry, true
}

// resolveLegacy handles identifiers from before the current id scheme: first
// the currently-loaded set, then a raw-path match.
func (s *Service) resolveLegacy(videoID string) (*models.VideoEntry, bool) {
	s.mu.RLock()
	known, ok := s.loaded[videoID]
	s.mu.RUnlock()
	if ok {
		entry := known
		return &entry, true
	}

	if id, ok := s.scanner.ResolveByPath(videoID); ok {
		return s.resolveLocal(id)
	}
	if exists, _ := afero.Exists(s.fs, videoID); exists {
		return &models.VideoEntry{
			ID:              library.VideoID(videoID),
			Kind:            models.VideoLocal,
			Title:           titleFromPath(videoID),
			PlaybackLocator: videoID,
			IsAvailable:     true,
		}, true
	}
	return nil, false
}

// withProgress merges the persisted resume position into the entry.
func (s *Service) withProgress(entry *models.VideoEntry) *models.VideoEntry {
	if s.progress == nil {
		return entry
	}
	p, err := s.progress.Get(entry.ID)
	if err != nil {
		log.Printf("[playback] progress lookup %s: %v", entry.ID, err)
		return entry
	}
	if p != nil && !p.Completed {
		entry.ResumeAtSeconds = p.PositionSeconds
	}
	return entry
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
