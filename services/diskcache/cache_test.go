package diskcache

import (
	"testing"
	"time"

	"github.com/spf13/afero"
)

type payload struct {
	IDs   []string `json:"ids"`
	Total int      `json:"total"`
}

func newTestCache(ttl time.Duration) (*Cache, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(afero.NewMemMapFs(), "/cache", func() time.Duration { return ttl })
	c.now = func() time.Time { return now }
	return c, &now
}

func TestRoundTrip(t *testing.T) {
	c, _ := newTestCache(30 * time.Minute)

	in := payload{IDs: []string{"a", "b"}, Total: 2}
	c.Set("k1", in)

	var out payload
	if !c.Get("k1", &out) {
		t.Fatal("Get() = miss, want hit")
	}
	if out.Total != 2 || len(out.IDs) != 2 || out.IDs[0] != "a" {
		t.Errorf("Get() = %+v, want %+v", out, in)
	}
}

func TestExpiry(t *testing.T) {
	c, now := newTestCache(30 * time.Minute)
	c.Set("k", payload{Total: 1})

	*now = now.Add(20 * time.Minute)
	var out payload
	if !c.Get("k", &out) {
		t.Fatal("Get() at t=20m = miss, want hit")
	}

	*now = now.Add(20 * time.Minute) // t=40m, past TTL
	if c.Get("k", &out) {
		t.Fatal("Get() at t=40m = hit, want miss")
	}
	// expired record must be deleted, not just skipped
	if exists, _ := afero.Exists(c.fs, c.path("k")); exists {
		t.Error("expired record still on disk after Get")
	}
}

func TestKeyOrderIndependent(t *testing.T) {
	a := Key("playlistItems", map[string]string{"playlistId": "PL1", "pageToken": "x", "maxResults": "50"})
	b := Key("playlistItems", map[string]string{"maxResults": "50", "pageToken": "x", "playlistId": "PL1"})
	if a != b {
		t.Errorf("Key() order-dependent: %q != %q", a, b)
	}
	c := Key("playlistItems", map[string]string{"playlistId": "PL2", "pageToken": "x", "maxResults": "50"})
	if a == c {
		t.Error("Key() collided for different params")
	}
	d := Key("channelItems", map[string]string{"playlistId": "PL1", "pageToken": "x", "maxResults": "50"})
	if a == d {
		t.Error("Key() collided for different endpoints")
	}
}

func TestCorruptRecordDeleted(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	if err := afero.WriteFile(c.fs, c.path("bad"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out payload
	if c.Get("bad", &out) {
		t.Fatal("Get() on corrupt record = hit, want miss")
	}
	if exists, _ := afero.Exists(c.fs, c.path("bad")); exists {
		t.Error("corrupt record still on disk after Get")
	}
}

func TestSweepExpired(t *testing.T) {
	c, now := newTestCache(10 * time.Minute)
	c.Set("fresh", payload{Total: 1})
	c.Set("old", payload{Total: 2})
	if err := afero.WriteFile(c.fs, c.path("junk"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	// age "old" by rewriting it with a back-dated clock
	past := now.Add(-20 * time.Minute)
	saved := c.now
	c.now = func() time.Time { return past }
	c.Set("old", payload{Total: 2})
	c.now = saved

	if got := c.SweepExpired(); got != 2 {
		t.Errorf("SweepExpired() = %d, want 2 (expired + junk)", got)
	}
	var out payload
	if !c.Get("fresh", &out) {
		t.Error("fresh record swept")
	}
}

func TestMissingDirIsMiss(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	var out payload
	if c.Get("nothing", &out) {
		t.Fatal("Get() on empty cache = hit, want miss")
	}
	if got := c.SweepExpired(); got != 0 {
		t.Errorf("SweepExpired() on empty cache = %d, want 0", got)
	}
}
