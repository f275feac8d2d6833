// Package metrics registers the Prometheus collectors exposed on the admin
// listener.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts page requests by resolution kind and status.
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pageshelf_requests_total",
		Help: "Total HTTP requests handled by the page dispatcher.",
	}, []string{"kind", "status"})

	// ScanCycleDuration records how long each scanner cycle took.
	ScanCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pageshelf_scan_cycle_duration_seconds",
		Help:    "Duration of a full scanner cycle.",
		Buckets: prometheus.DefBuckets,
	})

	// ScanPagesDiscovered records the size of the snapshot after the most
	// recent successful scan cycle.
	ScanPagesDiscovered = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pageshelf_scan_pages_discovered",
		Help: "Number of (owner, repo, branch) pages in the current scanner snapshot.",
	})

	// ScanFailuresTotal counts scan cycles that failed to reach the upstream.
	ScanFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pageshelf_scan_failures_total",
		Help: "Scanner cycles that failed before a snapshot could be published.",
	})

	// CacheHitsTotal and CacheMissesTotal track the cache layer's hit rate
	// per operation (asset, domain).
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pageshelf_cache_hits_total",
		Help: "Cache hits by operation.",
	}, []string{"op"})

	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pageshelf_cache_misses_total",
		Help: "Cache misses by operation.",
	}, []string{"op"})
)

// Register adds every collector to reg. Called once at startup.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		RequestsTotal,
		ScanCycleDuration,
		ScanPagesDiscovered,
		ScanFailuresTotal,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}
