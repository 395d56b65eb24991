package catalog

// ItemRef is a lightweight reference to one video inside a listing, enough to
// request full details later.
type ItemRef struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Position     int    `json:"position"`
}

// PlaylistPage is one cursor-advance worth of playlist items.
type PlaylistPage struct {
	Items         []ItemRef `json:"items"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
	TotalResults  int       `json:"totalResults"`
}

// ItemDetails is the normalized per-video metadata record.
type ItemDetails struct {
	VideoID         string `json:"videoId"`
	Title           string `json:"title"`
	ChannelTitle    string `json:"channelTitle,omitempty"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
}

// Wire shapes for the catalog API. Only the fields we read.

type channelListResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	PageInfo      struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
	Items []struct {
		Snippet struct {
			Title      string       `json:"title"`
			Position   int          `json:"position"`
			Thumbnails thumbnailSet `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string       `json:"title"`
			ChannelTitle string       `json:"channelTitle"`
			Thumbnails   thumbnailSet `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type thumbnailSet struct {
	Medium  thumbnailRef `json:"medium"`
	High    thumbnailRef `json:"high"`
	Default thumbnailRef `json:"default"`
}

type thumbnailRef struct {
	URL string `json:"url"`
}

// best picks the largest thumbnail variant present.
func (t thumbnailSet) best() string {
	switch {
	case t.High.URL != "":
		return t.High.URL
	case t.Medium.URL != "":
		return t.Medium.URL
	default:
		return t.Default.URL
	}
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}
