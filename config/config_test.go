package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tubeshelf/models"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMissingFileYieldsDefaults(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	cfg := m.Get()
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want default 50", cfg.PageSize)
	}
	if cfg.ListenAddr != ":7455" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if len(cfg.Sources) != 0 {
		t.Errorf("Sources = %+v, want none", cfg.Sources)
	}
}

func TestMalformedFileIsAnError(t *testing.T) {
	path := writeConfig(t, "{not json")
	if _, err := NewManager(path); err == nil {
		t.Fatal("NewManager() succeeded on malformed config")
	}
}

func TestSourcesSortedBySortOrder(t *testing.T) {
	path := writeConfig(t, `{"sources": [
		{"id": "b", "kind": "local_folder", "sortOrder": 2},
		{"id": "a", "kind": "remote_playlist", "sortOrder": 1}
	]}`)
	m, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	srcs := m.Sources()
	if len(srcs) != 2 || srcs[0].ID != "a" || srcs[1].ID != "b" {
		t.Errorf("sources = %+v, want a before b", srcs)
	}
}

func TestSourceLookup(t *testing.T) {
	path := writeConfig(t, `{"sources": [{"id": "lib", "kind": "local_folder", "locator": "/media"}]}`)
	m, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	src, ok := m.Source("lib")
	if !ok || src.Kind != models.SourceLocalFolder {
		t.Errorf("Source(lib) = %+v, %v", src, ok)
	}
	if _, ok := m.Source("ghost"); ok {
		t.Error("Source(ghost) should not resolve")
	}
}

func TestReloadSwapsSnapshot(t *testing.T) {
	path := writeConfig(t, `{"pageSize": 10}`)
	m, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.PageSize() != 10 {
		t.Fatalf("PageSize = %d, want 10", m.PageSize())
	}

	if err := os.WriteFile(path, []byte(`{"pageSize": 25, "cacheDurationMinutes": 5}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(); err != nil {
		t.Fatal(err)
	}
	if m.PageSize() != 25 {
		t.Errorf("PageSize after reload = %d, want 25", m.PageSize())
	}
	if m.CacheTTL() != 5*time.Minute {
		t.Errorf("CacheTTL after reload = %v, want 5m", m.CacheTTL())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TUBESHELF_PAGE_SIZE", "7")
	t.Setenv("TUBESHELF_API_KEY", "env-key")

	path := writeConfig(t, `{"pageSize": 10, "apiKey": "file-key"}`)
	m, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.PageSize() != 7 {
		t.Errorf("PageSize = %d, want env override 7", m.PageSize())
	}
	if m.Get().APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override", m.Get().APIKey)
	}
}
