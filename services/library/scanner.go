package library

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tubeshelf/models"
)

// videoExts is the extension whitelist for leaf video files.
var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".mov":  true,
	".m4v":  true,
	".ts":   true,
	".flv":  true,
	".wmv":  true,
	".mpg":  true,
	".mpeg": true,
}

// ScanResult is one directory level (or one full tree) of folders and videos.
type ScanResult struct {
	Folders []models.FolderEntry `json:"folders"`
	Videos  []models.VideoEntry  `json:"videos"`
	Depth   int                  `json:"depth"`
}

// Scanner walks local directory trees into listings. It remembers the id ->
// path mapping of everything it has seen so ids stay resolvable afterwards.
type Scanner struct {
	fs       afero.Fs
	collator *collate.Collator

	mu    sync.RWMutex
	paths map[string]string // video id -> absolute path
}

// NewScanner builds a scanner over fs.
func NewScanner(fs afero.Fs) *Scanner {
	return &Scanner{
		fs:       fs,
		collator: collate.New(language.Und, collate.IgnoreCase),
		paths:    make(map[string]string),
	}
}

// VideoID derives a stable identifier from an absolute file path. Repeated
// scans of the same tree always produce the same ids.
func VideoID(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return "local-" + hex.EncodeToString(sum[:16])
}

// IsLocalID reports whether id has the scanner's identifier shape.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, "local-")
}

// Resolve maps a previously-scanned video id back to its file path.
func (s *Scanner) Resolve(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.paths[id]
	return p, ok
}

// ResolveByPath finds the id for a path seen in an earlier scan. Used for
// legacy identifiers that predate the hashed id scheme.
func (s *Scanner) ResolveByPath(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, p := range s.paths {
		if p == path {
			return id, true
		}
	}
	return "", false
}

// Scan lists one directory level of a source. rel is the path below the
// source root being browsed ("" for the root itself). Directories are
// enumerated while the level is within the source's max depth; at the depth
// boundary, everything deeper is flattened into this listing instead of being
// dropped.
func (s *Scanner) Scan(src models.SourceDescriptor, rel string) (*ScanResult, error) {
	maxDepth := src.MaxDepth
	if maxDepth < 1 {
		maxDepth = 1
	}
	rel = cleanRel(rel)
	depth := 1
	if rel != "" {
		depth += strings.Count(rel, "/") + 1
	}
	dir := filepath.Join(src.Locator, filepath.FromSlash(rel))
	if !isSubpath(src.Locator, dir) {
		return &ScanResult{Depth: depth}, nil
	}
	res := &ScanResult{Depth: depth}
	s.scanLevel(src, dir, rel, depth, maxDepth, res)
	s.sortResult(res)
	return res, nil
}

// ScanFolder walks the whole tree up front, for sources paged as a flat list.
// Every video in the tree lands in Videos exactly once; entries deeper than
// the first level carry their relative path.
func (s *Scanner) ScanFolder(src models.SourceDescriptor) (*ScanResult, error) {
	res := &ScanResult{Depth: 1}
	s.flatten(src, src.Locator, "", res)
	s.sortResult(res)
	return res, nil
}

// scanLevel fills res with the folders and videos visible at dir. When depth
// has reached maxDepth, subdirectories are not listed; their videos are
// flattened into res with a relative-path tag.
func (s *Scanner) scanLevel(src models.SourceDescriptor, dir, rel string, depth, maxDepth int, res *ScanResult) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		// missing or unreadable directories degrade to an empty listing
		log.Printf("[library] skipping %s: %v", dir, err)
		return
	}
	// videos at the browsed level carry no relative-path tag; only content
	// flattened up from deeper levels does
	res.Videos = append(res.Videos, s.videosIn(src, dir, "", entries)...)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if depth < maxDepth {
			res.Folders = append(res.Folders, models.FolderEntry{
				Name:     e.Name(),
				Path:     joinRel(rel, e.Name()),
				SourceID: src.ID,
			})
			continue
		}
		// depth boundary: flatten the subtree into this listing
		s.flatten(src, filepath.Join(dir, e.Name()), e.Name(), res)
	}
}

// flatten recursively gathers every video below dir into res.
func (s *Scanner) flatten(src models.SourceDescriptor, dir, rel string, res *ScanResult) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		log.Printf("[library] skipping %s: %v", dir, err)
		return
	}
	res.Videos = append(res.Videos, s.videosIn(src, dir, rel, entries)...)
	for _, e := range entries {
		if e.IsDir() {
			s.flatten(src, filepath.Join(dir, e.Name()), joinRel(rel, e.Name()), res)
		}
	}
}

// videosIn turns the plain files of one directory into entries, suppressing
// converted duplicates: when a .mp4 shares its stem with another video file
// in the same directory, the .mp4 is the conversion output and only the
// original is surfaced.
func (s *Scanner) videosIn(src models.SourceDescriptor, dir, rel string, entries []os.FileInfo) []models.VideoEntry {
	stems := make(map[string]string) // stem -> ext of a non-mp4 sibling
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if videoExts[ext] && ext != ".mp4" {
			stems[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = ext
		}
	}

	var out []models.VideoEntry
	for _, e := range entries {
		if e.IsDir() || !s.isVideoFile(dir, e.Name()) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if ext == ".mp4" {
			if _, hasOriginal := stems[stem]; hasOriginal {
				continue
			}
		}
		absPath := filepath.Join(dir, e.Name())
		id := VideoID(absPath)
		s.mu.Lock()
		s.paths[id] = absPath
		s.mu.Unlock()
		entry := models.VideoEntry{
			ID:              id,
			Kind:            models.VideoLocal,
			Title:           stem,
			PlaybackLocator: absPath,
			SourceID:        src.ID,
			SourceTitle:     src.Title,
			IsAvailable:     true,
		}
		if rel != "" {
			entry.RelativePath = joinRel(rel, e.Name())
		}
		out = append(out, entry)
	}
	return out
}

// isVideoFile checks the extension whitelist, falling back to content
// sniffing for extensionless files.
func (s *Scanner) isVideoFile(dir, name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		return videoExts[ext]
	}
	f, err := s.fs.Open(filepath.Join(dir, name))
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 3072)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return false
	}
	mt := mimetype.Detect(head[:n])
	return strings.HasPrefix(mt.String(), "video/")
}

func (s *Scanner) sortResult(res *ScanResult) {
	sort.Slice(res.Folders, func(i, j int) bool {
		return s.collator.CompareString(res.Folders[i].Name, res.Folders[j].Name) < 0
	})
	sort.Slice(res.Videos, func(i, j int) bool {
		a, b := res.Videos[i], res.Videos[j]
		if c := s.collator.CompareString(a.Title, b.Title); c != 0 {
			return c < 0
		}
		return a.PlaybackLocator < b.PlaybackLocator
	})
}

func cleanRel(rel string) string {
	rel = filepath.ToSlash(filepath.Clean(rel))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "." {
		return ""
	}
	return rel
}

func joinRel(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}

// isSubpath guards against browsing above the source root.
func isSubpath(root, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(child))
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}
