// Package metrics provides Prometheus metrics for siteops.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "siteops"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Auth metrics
var (
	// LoginFailures counts rejected login attempts.
	LoginFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_failures_total",
			Help:      "Total rejected login attempts",
		},
	)
)

// Domain metrics
var (
	// TimeSessionsStarted counts opened time sessions.
	TimeSessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "time",
			Name:      "sessions_started_total",
			Help:      "Total time sessions started",
		},
	)

	// TimeSessionsClosed counts closed time sessions.
	TimeSessionsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "time",
			Name:      "sessions_closed_total",
			Help:      "Total time sessions closed",
		},
	)

	// VehicleCheckouts counts vehicle checkouts.
	VehicleCheckouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "checkouts_total",
			Help:      "Total vehicle checkouts",
		},
	)

	// VehicleCheckins counts vehicle checkins.
	VehicleCheckins = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fleet",
			Name:      "checkins_total",
			Help:      "Total vehicle checkins",
		},
	)

	// CostTransitions counts cost document approvals and rejections.
	CostTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "costs",
			Name:      "transitions_total",
			Help:      "Total cost document status transitions",
		},
		[]string{"status"},
	)
)
