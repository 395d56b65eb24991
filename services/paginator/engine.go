package paginator

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"

	"tubeshelf/config"
	"tubeshelf/internal/metrics"
	"tubeshelf/models"
	"tubeshelf/services/catalog"
	"tubeshelf/services/diskcache"
	"tubeshelf/services/library"
)

// catalogClient is the slice of the remote metadata client the engine needs.
type catalogClient interface {
	detailsFetcher
	ResolveHandle(ctx context.Context, handle string) (string, error)
	ResolveUploadsPlaylist(ctx context.Context, channelID string) (string, error)
	ListPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (*catalog.PlaylistPage, error)
}

// treeScanner is the slice of the local scanner the engine needs.
type treeScanner interface {
	Scan(src models.SourceDescriptor, rel string) (*library.ScanResult, error)
	ScanFolder(src models.SourceDescriptor) (*library.ScanResult, error)
}

// archiveIndex is the read-only view of the downloaded-video index.
type archiveIndex interface {
	ByFilePath(path string) (*models.DownloadedVideo, error)
}

// Engine turns page requests into cursor advances against the catalog or
// slices of local scan results, one strategy per source kind.
type Engine struct {
	cfg     *config.Manager
	cache   *diskcache.Cache
	client  catalogClient
	scanner treeScanner
	archive archiveIndex
	agg     *Aggregator

	mu    sync.Mutex
	scans map[string]*library.ScanResult
}

// NewEngine wires the engine. archive may be nil when no download subsystem
// is present; the archive strategy then serves plain scan results.
func NewEngine(cfg *config.Manager, cache *diskcache.Cache, client catalogClient, scanner treeScanner, archive archiveIndex) *Engine {
	return &Engine{
		cfg:     cfg,
		cache:   cache,
		client:  client,
		scanner: scanner,
		archive: archive,
		agg:     NewAggregator(client),
		scans:   make(map[string]*library.ScanResult),
	}
}

// pageStrategy is one per-source-kind pagination behavior.
type pageStrategy interface {
	page(ctx context.Context, src models.SourceDescriptor, page, size int) (*models.PageResult, error)
}

func (e *Engine) strategyFor(src models.SourceDescriptor) (pageStrategy, error) {
	switch src.Kind {
	case models.SourceRemoteChannel, models.SourceRemotePlaylist:
		return &remoteStrategy{e: e}, nil
	case models.SourceLocalFolder:
		return &localStrategy{e: e}, nil
	case models.SourceDownloadedArchive:
		return &archiveStrategy{e: e}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// GetPage serves one page of a source. The page size and cache TTL are read
// from live config at call time. Page numbers outside [1, totalPages] are
// clamped, and an empty source yields a well-formed single empty page.
func (e *Engine) GetPage(ctx context.Context, src models.SourceDescriptor, page int) (*models.PageResult, error) {
	metrics.PageRequests.WithLabelValues(string(src.Kind)).Inc()
	strat, err := e.strategyFor(src)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	res, err := strat.page(ctx, src, page, e.cfg.PageSize())
	if err != nil {
		return nil, err
	}
	if res.Items == nil {
		res.Items = []models.VideoEntry{}
	}
	return res, nil
}

// Browse lists one directory level of a folder-navigation source.
func (e *Engine) Browse(ctx context.Context, src models.SourceDescriptor, rel string) (*models.PageResult, error) {
	res, err := e.scanner.Scan(src, rel)
	if err != nil {
		return nil, err
	}
	items := res.Videos
	if items == nil {
		items = []models.VideoEntry{}
	}
	// folder navigation is not paginated: every level is one page no
	// matter how many entries it holds
	return &models.PageResult{
		Items:   items,
		Folders: res.Folders,
		PaginationState: models.PaginationState{
			CurrentPage: 1,
			TotalPages:  1,
			TotalItems:  len(items),
			PageSize:    e.cfg.PageSize(),
		},
	}, nil
}

// SourceSection is one source's first page on the aggregated front page.
type SourceSection struct {
	Source models.SourceDescriptor `json:"source"`
	Page   *models.PageResult      `json:"page"`
}

// FrontPage loads page 1 of every configured source concurrently. A source
// that fails becomes a diagnostic entry; it never blocks the others.
func (e *Engine) FrontPage(ctx context.Context) ([]SourceSection, []models.SourceDiagnostic) {
	sources := e.cfg.Sources()
	sections := make([]*SourceSection, len(sources))
	diags := make([]*models.SourceDiagnostic, len(sources))

	var wg conc.WaitGroup
	for i := range sources {
		i := i
		wg.Go(func() {
			src := sources[i]
			page, err := e.GetPage(ctx, src, 1)
			if err != nil {
				diags[i] = &models.SourceDiagnostic{
					SourceID: src.ID,
					Kind:     catalog.Classify(err),
					Message:  err.Error(),
				}
				return
			}
			sections[i] = &SourceSection{Source: src, Page: page}
		})
	}
	wg.Wait()

	outSections := make([]SourceSection, 0, len(sources))
	outDiags := make([]models.SourceDiagnostic, 0)
	for i := range sources {
		if sections[i] != nil {
			outSections = append(outSections, *sections[i])
		}
		if diags[i] != nil {
			outDiags = append(outDiags, *diags[i])
		}
	}
	return outSections, outDiags
}

// InvalidateScans drops memoized full scans, e.g. after a config reload or a
// finished download.
func (e *Engine) InvalidateScans() {
	e.mu.Lock()
	e.scans = make(map[string]*library.ScanResult)
	e.mu.Unlock()
}

func (e *Engine) cachedScan(src models.SourceDescriptor) (*library.ScanResult, error) {
	e.mu.Lock()
	if res, ok := e.scans[src.ID]; ok {
		e.mu.Unlock()
		return res, nil
	}
	e.mu.Unlock()

	res, err := e.scanner.ScanFolder(src)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.scans[src.ID] = res
	e.mu.Unlock()
	return res, nil
}

// slicePage cuts one page out of a full item list.
func slicePage(items []models.VideoEntry, page, size int) ([]models.VideoEntry, models.PaginationState) {
	state := models.NewPaginationState(page, len(items), size)
	start := (state.CurrentPage - 1) * state.PageSize
	end := start + state.PageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], state
}
