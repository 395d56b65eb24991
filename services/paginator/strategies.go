package paginator

import (
	"context"
	"strconv"
	"strings"

	"tubeshelf/internal/metrics"
	"tubeshelf/models"
	"tubeshelf/services/catalog"
	"tubeshelf/services/diskcache"
)

// cachedPage is what the disk cache holds per (source, page, pageSize): the
// page's item refs plus the cursor needed to reach the next page.
type cachedPage struct {
	Refs          []catalog.ItemRef `json:"refs"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
	TotalResults  int               `json:"totalResults"`
}

// remoteStrategy pages channels and playlists through the catalog client,
// consulting the disk cache before every network call.
type remoteStrategy struct {
	e *Engine
}

func (s *remoteStrategy) page(ctx context.Context, src models.SourceDescriptor, page, size int) (*models.PageResult, error) {
	// the catalog serves at most MaxPageSize items per request; the cache
	// key and the pagination state must both use the size actually served
	if size < 1 || size > catalog.MaxPageSize {
		size = catalog.MaxPageSize
	}
	playlistID, err := s.collectionID(ctx, src)
	if err != nil {
		return nil, err
	}
	refs, total, err := s.refsForPage(ctx, src, playlistID, page, size)
	if err != nil {
		return nil, err
	}
	items := s.e.agg.FetchAll(ctx, refs, src)
	return &models.PageResult{
		Items:           items,
		PaginationState: models.NewPaginationState(page, total, size),
	}, nil
}

// collectionID resolves a source locator to the playlist id that actually
// gets listed. Channels take the two-step uploads indirection, with both
// steps cached; playlists list their locator directly.
func (s *remoteStrategy) collectionID(ctx context.Context, src models.SourceDescriptor) (string, error) {
	if src.Kind == models.SourceRemotePlaylist {
		return src.Locator, nil
	}

	channelID := src.Locator
	if strings.HasPrefix(channelID, "@") {
		key := diskcache.Key("resolveHandle", map[string]string{"handle": channelID})
		var cached string
		if !s.e.cache.Get(key, &cached) {
			resolved, err := s.e.client.ResolveHandle(ctx, channelID)
			if err != nil {
				return "", err
			}
			cached = resolved
			s.e.cache.Set(key, cached)
		}
		channelID = cached
	}

	key := diskcache.Key("uploadsPlaylist", map[string]string{"channelId": channelID})
	var uploads string
	if !s.e.cache.Get(key, &uploads) {
		resolved, err := s.e.client.ResolveUploadsPlaylist(ctx, channelID)
		if err != nil {
			return "", err
		}
		uploads = resolved
		s.e.cache.Set(key, uploads)
	}
	return uploads, nil
}

// refsForPage walks the cursor chain up to the requested page, serving each
// hop from the cache when possible. A request past the last page returns the
// last page (the caller's pagination state clamps to match).
func (s *remoteStrategy) refsForPage(ctx context.Context, src models.SourceDescriptor, playlistID string, page, size int) ([]catalog.ItemRef, int, error) {
	token := ""
	for p := 1; ; p++ {
		key := diskcache.Key("playlistItems", map[string]string{
			"sourceId":   src.ID,
			"playlistId": playlistID,
			"page":       strconv.Itoa(p),
			"pageSize":   strconv.Itoa(size),
		})
		var rec cachedPage
		if s.e.cache.Get(key, &rec) {
			metrics.CacheHits.Inc()
		} else {
			metrics.CacheMisses.Inc()
			resp, err := s.e.client.ListPlaylistItems(ctx, playlistID, size, token)
			if err != nil {
				return nil, 0, err
			}
			rec = cachedPage{
				Refs:          resp.Items,
				NextPageToken: resp.NextPageToken,
				TotalResults:  resp.TotalResults,
			}
			s.e.cache.Set(key, rec)
		}
		if p == page || rec.NextPageToken == "" {
			return rec.Refs, rec.TotalResults, nil
		}
		token = rec.NextPageToken
	}
}

// localStrategy slices a memoized full scan for flat-paginated folders, and
// is a single-page no-op for folder-navigation sources (navigation happens
// through Engine.Browse instead).
type localStrategy struct {
	e *Engine
}

func (s *localStrategy) page(ctx context.Context, src models.SourceDescriptor, page, size int) (*models.PageResult, error) {
	if !src.PaginatesFlat() {
		return s.e.Browse(ctx, src, "")
	}
	full, err := s.e.cachedScan(src)
	if err != nil {
		return nil, err
	}
	items, state := slicePage(full.Videos, page, size)
	return &models.PageResult{Items: items, PaginationState: state}, nil
}

// archiveStrategy treats the download directory as a local folder scan,
// always flat-paginated, with the downloads index overlaid so recorded
// titles and ids win over filename-derived ones.
type archiveStrategy struct {
	e *Engine
}

func (s *archiveStrategy) page(ctx context.Context, src models.SourceDescriptor, page, size int) (*models.PageResult, error) {
	if src.Locator == "" {
		src.Locator = s.e.cfg.Get().DownloadDir
	}
	full, err := s.e.cachedScan(src)
	if err != nil {
		return nil, err
	}
	videos := make([]models.VideoEntry, len(full.Videos))
	copy(videos, full.Videos)
	for i := range videos {
		videos[i].Kind = models.VideoDownloaded
		if s.e.archive == nil {
			continue
		}
		rec, err := s.e.archive.ByFilePath(videos[i].PlaybackLocator)
		if err != nil || rec == nil {
			continue
		}
		videos[i].ID = rec.VideoID
		if rec.Title != "" {
			videos[i].Title = rec.Title
		}
		if rec.Duration > 0 {
			videos[i].DurationSeconds = rec.Duration
		}
		if rec.ThumbnailPath != "" {
			videos[i].ThumbnailRef = rec.ThumbnailPath
		}
	}
	items, state := slicePage(videos, page, size)
	return &models.PageResult{Items: items, PaginationState: state}, nil
}
