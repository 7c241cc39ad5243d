// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scraperRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_records_total",
			Help: "Total number of records processed, labeled by final state.",
		},
		[]string{"state"},
	)

	scraperSolveRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_solve_requests_total",
			Help: "Total number of challenge solve requests, labeled by status.",
		},
		[]string{"status"},
	)

	scraperBatchRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_batch_runs_total",
			Help: "Total number of batch runs started.",
		},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRecord increments the record counter for the given final state.
func ObserveRecord(state string) {
	scraperRecordsTotal.WithLabelValues(state).Inc()
}

// ObserveSolve increments the solve request counter for the given status.
func ObserveSolve(status string) {
	scraperSolveRequestsTotal.WithLabelValues(status).Inc()
}

// ObserveBatchRun increments the batch run counter.
func ObserveBatchRun() {
	scraperBatchRuns.Inc()
}
