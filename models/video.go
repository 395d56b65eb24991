package models

// VideoKind distinguishes where a video's bytes come from.
type VideoKind string

const (
	VideoLocal      VideoKind = "local"
	VideoRemote     VideoKind = "remote"
	VideoDownloaded VideoKind = "downloaded"
)

// VideoEntry is the unifying record every source normalizes into. For remote
// videos ID is the catalog's native identifier; for local videos it is derived
// deterministically from the file path so repeated scans agree.
type VideoEntry struct {
	ID              string    `json:"id"`
	Kind            VideoKind `json:"kind"`
	Title           string    `json:"title"`
	ThumbnailRef    string    `json:"thumbnailRef,omitempty"`
	DurationSeconds int       `json:"durationSeconds"`
	PlaybackLocator string    `json:"playbackLocator"`
	SourceID        string    `json:"sourceId"`
	SourceTitle     string    `json:"sourceTitle,omitempty"`
	ResumeAtSeconds int       `json:"resumeAtSeconds,omitempty"`
	IsAvailable     bool      `json:"isAvailable"`
	IsFallback      bool      `json:"isFallback,omitempty"`
	ErrorKind       ErrorKind `json:"errorKind,omitempty"`
	// RelativePath is set for local videos flattened up from below the
	// configured scan depth, so the listing can show where they live.
	RelativePath string `json:"relativePath,omitempty"`
}

// FolderEntry is a browsable subdirectory in a folder-navigation source.
type FolderEntry struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	SourceID   string `json:"sourceId"`
	VideoCount int    `json:"videoCount,omitempty"`
}

// PaginationState is derived per request from the total item count; it is
// never persisted.
type PaginationState struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
	PageSize    int `json:"pageSize"`
}

// NewPaginationState computes page bounds with ceiling division and clamps
// the current page into [1, max(1, totalPages)].
func NewPaginationState(page, totalItems, pageSize int) PaginationState {
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return PaginationState{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		PageSize:    pageSize,
	}
}

// PageResult is the uniform page shape produced for every source kind; the
// presentation layer depends on it never varying.
type PageResult struct {
	Items           []VideoEntry    `json:"items"`
	Folders         []FolderEntry   `json:"folders,omitempty"`
	PaginationState PaginationState `json:"paginationState"`
}
