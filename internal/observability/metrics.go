package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_portal_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// ActiveConnections tracks in-flight requests
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_portal_active_connections",
			Help: "Number of active connections",
		},
	)

	// CacheHits tracks cache hits and misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_portal_cache_hits_total",
			Help: "Number of cache lookups by result",
		},
		[]string{"operation", "result"},
	)

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_portal_database_operations_total",
			Help: "Number of database operations",
		},
		[]string{"operation", "status"},
	)

	// TenantResolutions counts tenant lookups, labelled by whether the default was used
	TenantResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_portal_tenant_resolutions_total",
			Help: "Number of tenant resolutions",
		},
		[]string{"tenant", "fallback"},
	)

	// SessionResolutions counts session resolutions by terminal state
	SessionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_portal_session_resolutions_total",
			Help: "Number of session resolutions by terminal state",
		},
		[]string{"tenant", "state", "source"},
	)

	// SessionResolutionDuration tracks how long identity discovery took
	SessionResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_portal_session_resolution_duration_seconds",
			Help:    "Time spent polling for an identity",
			Buckets: []float64{0.05, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"state"},
	)

	// ProgressWrites counts progress writes by kind and outcome
	ProgressWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_portal_progress_writes_total",
			Help: "Number of progress writes",
		},
		[]string{"kind", "status"},
	)
)
