package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route pattern and
	// status class.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanventory_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency per route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scanventory_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ScansCommitted counts debounced scan commits per session mode.
	ScansCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanventory_scans_committed_total",
			Help: "Committed scans accepted by the debouncer.",
		},
		[]string{"mode"},
	)

	// ScanOutcomes counts settled scans by terminal presenter state.
	ScanOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanventory_scan_outcomes_total",
			Help: "Settled scans by outcome (success, not_found, error).",
		},
		[]string{"mode", "outcome"},
	)

	// StockAdjustments counts applied stock deltas by ledger reason.
	StockAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanventory_stock_adjustments_total",
			Help: "Applied stock adjustments by reason.",
		},
		[]string{"reason"},
	)
)
