// Package metrics exposes Prometheus counters for adapter activity. All
// collectors are registered on the default registry at init and labeled by
// table name so multiple adapters can share a process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts remote pages fetched, including cached hits.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govtable_pages_fetched_total",
		Help: "Total number of remote result pages fetched",
	}, []string{"table"})

	// RowsEmitted counts rows handed to the host engine.
	RowsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govtable_rows_emitted_total",
		Help: "Total number of rows emitted to the host engine",
	}, []string{"table"})

	// RowsSkipped counts rows dropped by coercion failures on required
	// columns.
	RowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govtable_rows_skipped_total",
		Help: "Total number of rows skipped due to coercion failures",
	}, []string{"table"})

	// RetryAttempts counts retried remote requests.
	RetryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govtable_retry_attempts_total",
		Help: "Total number of retried remote requests",
	}, []string{"table"})

	// RemoteErrors counts terminal remote failures by error type.
	RemoteErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govtable_remote_errors_total",
		Help: "Total number of terminal remote request failures",
	}, []string{"table", "type"})

	// CacheHits counts responses served from the local TTL cache.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govtable_cache_hits_total",
		Help: "Total number of responses served from the response cache",
	}, []string{"table"})
)
