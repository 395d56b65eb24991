// Package metrics holds the process-wide prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PageRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubeshelf_page_requests_total",
		Help: "Page requests served, by source kind.",
	}, []string{"kind"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubeshelf_cache_hits_total",
		Help: "Remote listing pages served from the disk cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubeshelf_cache_misses_total",
		Help: "Remote listing pages that required a catalog call.",
	})

	FallbackItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubeshelf_fallback_items_total",
		Help: "Items substituted with fallback placeholders after fetch failures.",
	})

	ThumbnailsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubeshelf_thumbnails_generated_total",
		Help: "Thumbnails generated successfully.",
	})

	ThumbnailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubeshelf_thumbnail_failures_total",
		Help: "Thumbnail generation attempts that failed.",
	})
)
