package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"tubeshelf/models"
)

// Config is one immutable snapshot of the application settings. Callers must
// not mutate a snapshot; reload replaces it wholesale.
type Config struct {
	// Pagination
	PageSize             int `json:"pageSize"`
	CacheDurationMinutes int `json:"cacheDurationMinutes"`

	// Remote catalog
	APIKey         string `json:"apiKey"`
	APIBaseURL     string `json:"apiBaseUrl,omitempty"`
	RequestTimeout int    `json:"requestTimeoutSeconds,omitempty"`

	// Paths
	CacheDir     string `json:"cacheDir"`
	ThumbnailDir string `json:"thumbnailDir"`
	DownloadDir  string `json:"downloadDir"`
	DatabasePath string `json:"databasePath"`
	LogPath      string `json:"logPath,omitempty"`

	// HTTP
	ListenAddr string `json:"listenAddr,omitempty"`

	Sources []models.SourceDescriptor `json:"sources"`
}

const (
	defaultPageSize       = 50
	defaultCacheMinutes   = 30
	defaultRequestTimeout = 10
	defaultListenAddr     = ":7455"
)

func (c *Config) applyDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.CacheDurationMinutes <= 0 {
		c.CacheDurationMinutes = defaultCacheMinutes
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(dataDir(), "cache")
	}
	if c.ThumbnailDir == "" {
		c.ThumbnailDir = filepath.Join(dataDir(), "thumbnails")
	}
	if c.DownloadDir == "" {
		c.DownloadDir = filepath.Join(dataDir(), "downloads")
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(dataDir(), "tubeshelf.db")
	}
}

func dataDir() string {
	if d := os.Getenv("TUBESHELF_DATA_DIR"); d != "" {
		return d
	}
	return "./data"
}

// applyEnv lets deployment-level settings override the file without editing it.
func (c *Config) applyEnv() {
	if v := os.Getenv("TUBESHELF_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("TUBESHELF_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("TUBESHELF_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PageSize = n
		}
	}
	if v := os.Getenv("TUBESHELF_CACHE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CacheDurationMinutes = n
		}
	}
}

// Manager owns the current config snapshot and reloads it from disk on
// demand. Accessors read the live snapshot, so TTL and page-size changes
// take effect without a restart.
type Manager struct {
	mu   sync.RWMutex
	path string
	cfg  *Config
}

// NewManager loads the config file at path. A missing file yields defaults
// with no sources rather than an error, so first boot works out of the box.
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload re-reads the config file and swaps the snapshot.
func (m *Manager) Reload() error {
	cfg := &Config{}
	data, err := os.ReadFile(m.path)
	switch {
	case os.IsNotExist(err):
		// fresh install, run on defaults
	case err != nil:
		return fmt.Errorf("read config %s: %w", m.path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", m.path, err)
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	sort.SliceStable(cfg.Sources, func(i, j int) bool {
		return cfg.Sources[i].SortOrder < cfg.Sources[j].SortOrder
	})

	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	return nil
}

// Get returns the current snapshot.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// PageSize reads the live page size.
func (m *Manager) PageSize() int {
	return m.Get().PageSize
}

// CacheTTL reads the live cache duration.
func (m *Manager) CacheTTL() time.Duration {
	return time.Duration(m.Get().CacheDurationMinutes) * time.Minute
}

// Sources returns the configured source list in sort order.
func (m *Manager) Sources() []models.SourceDescriptor {
	return m.Get().Sources
}

// Source looks up one source by id.
func (m *Manager) Source(id string) (models.SourceDescriptor, bool) {
	for _, s := range m.Get().Sources {
		if s.ID == id {
			return s, true
		}
	}
	return models.SourceDescriptor{}, false
}
