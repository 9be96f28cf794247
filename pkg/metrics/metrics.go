// Package metrics provides Prometheus metrics for the tracker service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshRunsTotal tracks refresh invocations by outcome
	// (success, oracle_error, response_error).
	RefreshRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracker",
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of vendor refresh runs by outcome",
		},
		[]string{"outcome"},
	)

	// RefreshDuration tracks end-to-end refresh duration in seconds
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tracker",
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Duration of vendor refresh runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	// VendorActionsTotal tracks reconciliation outcomes per vendor
	// (updated, inserted, failed, skipped).
	VendorActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracker",
			Subsystem: "refresh",
			Name:      "vendor_actions_total",
			Help:      "Total number of per-vendor reconciliation outcomes",
		},
		[]string{"vendor", "action"},
	)

	// OracleRequestDuration tracks oracle call duration
	OracleRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tracker",
			Subsystem: "oracle",
			Name:      "request_duration_seconds",
			Help:      "Duration of oracle requests in seconds",
			Buckets:   []float64{1, 5, 10, 20, 40, 60, 120},
		},
		[]string{"model", "status"},
	)

	// HTTPRequestsTotal tracks inbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracker",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tracker",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method"},
	)

	// CacheLookupsTotal tracks dashboard cache hits and misses
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracker",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of dashboard cache lookups by result",
		},
		[]string{"result"},
	)

	// MCPToolCallsTotal tracks MCP tool calls by tool and outcome (ok, tool_error, error)
	MCPToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracker",
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Total number of MCP tool calls by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	// MCPToolDuration tracks MCP tool call latency
	MCPToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tracker",
			Subsystem: "mcp",
			Name:      "tool_duration_seconds",
			Help:      "Duration of MCP tool calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tool"},
	)
)
