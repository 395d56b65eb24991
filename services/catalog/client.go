package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	// One round-trip per call, bounded hard; callers discard rather than
	// cancel, so the client timeout is the only cancellation.
	requestTimeout = 10 * time.Second
)

// Client is a thin wrapper over the catalog API's channel, playlist and video
// endpoints. Every method is a single HTTP round-trip.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
}

// NewClient builds a client. A nil httpc gets the default 10s-timeout client.
func NewClient(apiKey, baseURL string, httpc *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
		// the API tolerates bursts but sustained hammering burns quota
		limiter: rate.NewLimiter(rate.Limit(8), 4),
	}
}

// ResolveHandle resolves an @handle to its channel id. A handle with no match
// fails with ErrNotFound.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	var resp channelListResponse
	q := url.Values{}
	q.Set("part", "id")
	q.Set("forHandle", handle)
	if err := c.doGET(ctx, "channels", q, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("resolve handle %q: %w", handle, ErrNotFound)
	}
	return resp.Items[0].ID, nil
}

// ResolveUploadsPlaylist resolves a channel id to its uploads collection id.
// The catalog has no direct channel->videos listing; every channel listing
// goes through this indirection first.
func (c *Client) ResolveUploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	var resp channelListResponse
	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("id", channelID)
	if err := c.doGET(ctx, "channels", q, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("channel %q: %w", channelID, ErrNotFound)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// ListChannelItems lists the first pageSize uploads of a channel: resolve the
// uploads collection, then list it.
func (c *Client) ListChannelItems(ctx context.Context, channelID string, pageSize int) ([]ItemRef, error) {
	uploads, err := c.ResolveUploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}
	page, err := c.ListPlaylistItems(ctx, uploads, pageSize, "")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// MaxPageSize is the largest page the catalog API serves per request.
// Callers that page with a larger configured size must clamp to this before
// deriving pagination math, or pages and totals drift apart.
const MaxPageSize = 50

// ListPlaylistItems lists one page of a playlist. pageToken "" means the
// first page; the returned NextPageToken is "" on the last page.
func (c *Client) ListPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (*PlaylistPage, error) {
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	var resp playlistItemsResponse
	q := url.Values{}
	q.Set("part", "snippet,contentDetails")
	q.Set("playlistId", playlistID)
	q.Set("maxResults", strconv.Itoa(pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	if err := c.doGET(ctx, "playlistItems", q, &resp); err != nil {
		return nil, err
	}
	page := &PlaylistPage{
		NextPageToken: resp.NextPageToken,
		TotalResults:  resp.PageInfo.TotalResults,
	}
	for _, it := range resp.Items {
		if it.ContentDetails.VideoID == "" {
			continue
		}
		page.Items = append(page.Items, ItemRef{
			VideoID:      it.ContentDetails.VideoID,
			Title:        it.Snippet.Title,
			ThumbnailURL: it.Snippet.Thumbnails.best(),
			Position:     it.Snippet.Position,
		})
	}
	return page, nil
}

// GetItemDetails fetches full metadata for one video. An unknown id fails
// with ErrNotFound.
func (c *Client) GetItemDetails(ctx context.Context, videoID string) (*ItemDetails, error) {
	var resp videoListResponse
	q := url.Values{}
	q.Set("part", "snippet,contentDetails")
	q.Set("id", videoID)
	if err := c.doGET(ctx, "videos", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %q: %w", videoID, ErrNotFound)
	}
	it := resp.Items[0]
	return &ItemDetails{
		VideoID:         it.ID,
		Title:           it.Snippet.Title,
		ChannelTitle:    it.Snippet.ChannelTitle,
		ThumbnailURL:    it.Snippet.Thumbnails.best(),
		DurationSeconds: ParseISODuration(it.ContentDetails.Duration),
	}, nil
}

func (c *Client) doGET(ctx context.Context, endpoint string, q url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	q.Set("key", c.apiKey)
	u := c.baseURL + "/" + endpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return fmt.Errorf("%s: %w", endpoint, ErrTimeout)
		}
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return classifyStatus(endpoint, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	return nil
}

func classifyStatus(endpoint string, status int, body []byte) error {
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	case http.StatusForbidden:
		var apiErr apiErrorResponse
		if json.Unmarshal(body, &apiErr) == nil {
			for _, e := range apiErr.Error.Errors {
				if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" {
					return fmt.Errorf("%s: %w", endpoint, ErrQuotaExceeded)
				}
			}
		}
		return fmt.Errorf("%s: %w", endpoint, ErrForbidden)
	default:
		return fmt.Errorf("%s: status %d: %s", endpoint, status, strings.TrimSpace(string(body)))
	}
}
