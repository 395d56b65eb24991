package diskcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Cache is a TTL key/value store for remote responses, one JSON file per key.
// Caching is advisory: every I/O failure is treated as a miss, and expired or
// unparsable records are deleted on sight so the cache heals itself.
type Cache struct {
	fs  afero.Fs
	dir string
	ttl func() time.Duration
	now func() time.Time
}

type record struct {
	Key       string          `json:"key"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// New returns a cache rooted at dir. ttl is consulted on every validity
// check, not captured at construction, so operators can change it at runtime.
func New(fs afero.Fs, dir string, ttl func() time.Duration) *Cache {
	return &Cache{fs: fs, dir: dir, ttl: ttl, now: time.Now}
}

// Key derives a deterministic, order-independent cache key from an endpoint
// name and its parameters: parameter names are sorted before concatenation so
// equivalent requests with reordered params hit the same record.
func Key(endpoint string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

// Get unmarshals the cached payload for key into v. It returns false for a
// missing, expired, or corrupt record; the latter two are deleted eagerly.
func (c *Cache) Get(key string, v any) bool {
	if key == "" {
		return false
	}
	path := c.path(key)
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return false
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("[diskcache] corrupt record %s, deleting: %v", key, err)
		_ = c.fs.Remove(path)
		return false
	}
	if c.now().Sub(rec.Timestamp) >= c.ttl() {
		_ = c.fs.Remove(path)
		return false
	}
	if err := json.Unmarshal(rec.Payload, v); err != nil {
		log.Printf("[diskcache] corrupt payload %s, deleting: %v", key, err)
		_ = c.fs.Remove(path)
		return false
	}
	return true
}

// Set stores v under key. Writes go through a temp file and rename so a
// crash mid-write never leaves a half-written record. Errors are logged and
// swallowed; a failed write just means a future miss.
func (c *Cache) Set(key string, v any) {
	if key == "" {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("[diskcache] marshal %s: %v", key, err)
		return
	}
	rec := record{Key: key, Timestamp: c.now(), Payload: payload}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[diskcache] marshal record %s: %v", key, err)
		return
	}
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		log.Printf("[diskcache] mkdir %s: %v", c.dir, err)
		return
	}
	path := c.path(key)
	tmp := path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o644); err != nil {
		log.Printf("[diskcache] write %s: %v", key, err)
		return
	}
	if err := c.fs.Rename(tmp, path); err != nil {
		_ = c.fs.Remove(tmp)
		log.Printf("[diskcache] rename %s: %v", key, err)
	}
}

// SweepExpired deletes every expired or unreadable record and reports how
// many were removed.
func (c *Cache) SweepExpired() int {
	entries, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		if !os.IsNotExist(err) && !errors.Is(err, afero.ErrFileNotFound) {
			log.Printf("[diskcache] sweep readdir: %v", err)
		}
		return 0
	}
	removed := 0
	ttl := c.ttl()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		data, err := afero.ReadFile(c.fs, path)
		if err != nil {
			continue
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil || c.now().Sub(rec.Timestamp) >= ttl {
			if c.fs.Remove(path) == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		log.Printf("[diskcache] sweep removed %d records", removed)
	}
	return removed
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
