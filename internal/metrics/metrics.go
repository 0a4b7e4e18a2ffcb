// Package metrics provides Prometheus metrics for directory loads and
// thumbnail retrieval.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loadsRequested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docview_loads_requested_total",
			Help: "Directory loads requested, by load type",
		},
		[]string{"type"},
	)

	loadResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docview_load_results_total",
			Help: "Load results received, by outcome (applied, stale)",
		},
		[]string{"outcome"},
	)

	thumbnailLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docview_thumbnail_cache_lookups_total",
			Help: "Thumbnail cache lookups, by result (hit, miss)",
		},
		[]string{"result"},
	)

	thumbnailFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docview_thumbnail_fetches_total",
			Help: "Thumbnail fetches, by outcome (started, bound, discarded, cancelled, failed)",
		},
		[]string{"outcome"},
	)

	thumbnailCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docview_thumbnail_cache_entries",
			Help: "Entries held by the thumbnail cache",
		},
	)
)

// RecordLoadRequested counts a load request.
func RecordLoadRequested(loadType string) {
	loadsRequested.WithLabelValues(loadType).Inc()
}

// RecordLoadResult counts an applied or stale load result.
func RecordLoadResult(applied bool) {
	if applied {
		loadResults.WithLabelValues("applied").Inc()
		return
	}
	loadResults.WithLabelValues("stale").Inc()
}

// RecordThumbnailLookup counts a cache hit or miss.
func RecordThumbnailLookup(hit bool) {
	if hit {
		thumbnailLookups.WithLabelValues("hit").Inc()
		return
	}
	thumbnailLookups.WithLabelValues("miss").Inc()
}

// RecordThumbnailFetch counts a fetch lifecycle event.
func RecordThumbnailFetch(outcome string) {
	thumbnailFetches.WithLabelValues(outcome).Inc()
}

// SetThumbnailCacheSize updates the cache size gauge.
func SetThumbnailCacheSize(n int) {
	thumbnailCacheSize.Set(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
