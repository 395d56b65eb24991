package models

// SourceKind identifies which backend a configured source is served from.
type SourceKind string

const (
	SourceRemoteChannel     SourceKind = "remote_channel"
	SourceRemotePlaylist    SourceKind = "remote_playlist"
	SourceLocalFolder       SourceKind = "local_folder"
	SourceDownloadedArchive SourceKind = "downloaded_archive"
)

// SourceDescriptor identifies one configured origin of videos. Descriptors are
// immutable for the lifetime of a config snapshot; a config reload replaces
// the whole list.
type SourceDescriptor struct {
	ID        string     `json:"id"`
	Kind      SourceKind `json:"kind"`
	Title     string     `json:"title"`
	Locator   string     `json:"locator"` // URL, handle/channel/playlist id, or filesystem path
	SortOrder int        `json:"sortOrder"`
	MaxDepth  int        `json:"maxDepth,omitempty"`
	// UsePagination forces flat pagination for local folders that would
	// otherwise browse folder-by-folder. Kept separate from MaxDepth on
	// purpose: the toggle encodes configuration-author intent and is not
	// derivable from the tree itself.
	UsePagination bool `json:"usePagination,omitempty"`
}

// PaginatesFlat reports whether a local source is paged as a flat list
// instead of browsed folder-by-folder.
func (s SourceDescriptor) PaginatesFlat() bool {
	if s.Kind == SourceDownloadedArchive {
		return true
	}
	return s.MaxDepth <= 1 || s.UsePagination
}

// SourceDiagnostic records a per-source load failure so one bad source can be
// reported alongside the sources that loaded fine.
type SourceDiagnostic struct {
	SourceID string    `json:"sourceId"`
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
}
