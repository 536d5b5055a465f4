package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// VoidOperations counts void and damage attempts by outcome (success, rejected, failed)
	VoidOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "void_operations_total",
			Help: "Void and damage operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	VoidSideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "void_side_effect_failures_total",
			Help: "Non-fatal void side effects that failed",
		},
		[]string{"step"},
	)

	BatchVoidItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_void_items_total",
			Help: "Batch void items by final status",
		},
		[]string{"status"},
	)

	ReprintLabels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reprint_labels_total",
			Help: "Auto reprint label requests by outcome",
		},
		[]string{"outcome"},
	)

	DashboardCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_cache_requests_total",
			Help: "Dashboard widget data lookups by source",
		},
		[]string{"result"},
	)

	DashboardClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_refresh_clients",
			Help: "Connected dashboard refresh websocket clients",
		},
	)
)
