package paginator

import (
	"context"
	"log"

	"github.com/sourcegraph/conc"

	"tubeshelf/internal/metrics"
	"tubeshelf/models"
	"tubeshelf/services/catalog"
)

// detailsFetcher is the one catalog call the aggregator needs.
type detailsFetcher interface {
	GetItemDetails(ctx context.Context, videoID string) (*catalog.ItemDetails, error)
}

// Aggregator fans out per-item metadata fetches and smooths over individual
// failures so a page never fails wholesale.
type Aggregator struct {
	fetcher detailsFetcher
}

// NewAggregator wraps fetcher.
func NewAggregator(fetcher detailsFetcher) *Aggregator {
	return &Aggregator{fetcher: fetcher}
}

// FetchAll resolves every ref concurrently and returns exactly one entry per
// input ref, in input order. A failed fetch yields a classified fallback
// placeholder carrying whatever was already known about the item; it never
// cancels its siblings and never shrinks the output.
func (a *Aggregator) FetchAll(ctx context.Context, refs []catalog.ItemRef, src models.SourceDescriptor) []models.VideoEntry {
	entries := make([]models.VideoEntry, len(refs))

	var wg conc.WaitGroup
	for i := range refs {
		i := i
		wg.Go(func() {
			ref := refs[i]
			details, err := a.fetcher.GetItemDetails(ctx, ref.VideoID)
			if err != nil {
				entries[i] = fallbackEntry(ref, src, catalog.Classify(err))
				return
			}
			entries[i] = models.VideoEntry{
				ID:              details.VideoID,
				Kind:            models.VideoRemote,
				Title:           details.Title,
				ThumbnailRef:    details.ThumbnailURL,
				DurationSeconds: details.DurationSeconds,
				PlaybackLocator: watchURL(details.VideoID),
				SourceID:        src.ID,
				SourceTitle:     src.Title,
				IsAvailable:     true,
			}
		})
	}
	wg.Wait()

	available, fallback := 0, 0
	for _, e := range entries {
		if e.IsFallback {
			fallback++
		} else {
			available++
		}
	}
	if fallback > 0 {
		metrics.FallbackItems.Add(float64(fallback))
	}
	// one summary line per batch, not one per item
	log.Printf("[paginator] source %s: %d available, %d fallback", src.ID, available, fallback)
	return entries
}

// fallbackEntry carries only the metadata known before the failed fetch.
func fallbackEntry(ref catalog.ItemRef, src models.SourceDescriptor, kind models.ErrorKind) models.VideoEntry {
	return models.VideoEntry{
		ID:              ref.VideoID,
		Kind:            models.VideoRemote,
		Title:           ref.Title,
		ThumbnailRef:    ref.ThumbnailURL,
		PlaybackLocator: watchURL(ref.VideoID),
		SourceID:        src.ID,
		SourceTitle:     src.Title,
		IsAvailable:     false,
		IsFallback:      true,
		ErrorKind:       kind,
	}
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
