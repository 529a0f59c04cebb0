// Package metrics exposes Prometheus instrumentation for the store core.
// Label cardinality is kept deliberately small:
//
//   - op:      the façade operation (create/update/delete/import)
//   - outcome: "ok" or "error"
//
// All collectors are safe for concurrent use and registered once at init.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// commits counts write-scope commits by operation and outcome.
	commits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_store_commits_total",
			Help: "Total number of write-scope commits.",
		},
		[]string{"op", "outcome"},
	)

	// imports counts importIfNeeded calls by outcome, including the
	// skipped case where the persisted flag short-circuits the fetch.
	imports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_store_imports_total",
			Help: "Total number of import attempts by outcome (ok/error/skipped).",
		},
		[]string{"outcome"},
	)

	// remoteFetch records seed-fetch duration in seconds by outcome.
	remoteFetch = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todo_store_remote_fetch_duration_seconds",
			Help:    "Duration of remote seed fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(commits, imports, remoteFetch)
}

// ObserveCommit records one write-scope commit.
func ObserveCommit(op string, ok bool) {
	commits.WithLabelValues(op, outcome(ok)).Inc()
}

// ObserveImport records one importIfNeeded call. outcome is one of
// "ok", "error", "skipped".
func ObserveImport(result string) {
	imports.WithLabelValues(result).Inc()
}

// ObserveRemoteFetch records the duration of one seed fetch.
func ObserveRemoteFetch(d time.Duration, ok bool) {
	remoteFetch.WithLabelValues(outcome(ok)).Observe(d.Seconds())
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
