// Package metrics exposes Prometheus collectors for backend calls,
// session guard decisions and CSRF token syncs.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for the client.
type Metrics struct {
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	guardDecisions  *prometheus.CounterVec
	csrfSyncs       *prometheus.CounterVec
	storeUpdates    *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// New returns the process-wide metrics collector, registering it on first use.
func New() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			backendRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "skinscan_client_backend_requests_total",
					Help: "Total number of backend calls by endpoint, method and status class",
				},
				[]string{"endpoint", "method", "status"},
			),
			backendDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "skinscan_client_backend_request_duration_seconds",
					Help:    "Backend call duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"endpoint", "method"},
			),
			guardDecisions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "skinscan_client_guard_decisions_total",
					Help: "Session guard outcomes by guard and decision",
				},
				[]string{"guard", "decision"},
			),
			csrfSyncs: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "skinscan_client_csrf_syncs_total",
					Help: "CSRF token fetches and cookie syncs by outcome",
				},
				[]string{"op", "outcome"},
			),
			storeUpdates: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "skinscan_client_store_updates_total",
					Help: "State container replacements by container",
				},
				[]string{"container"},
			),
		}
	})
	return metricsInst
}

// RecordBackendCall records a completed backend call.
// A status of 0 means the call failed before a response arrived.
func (m *Metrics) RecordBackendCall(endpoint, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	m.backendRequests.WithLabelValues(endpoint, method, StatusClass(status)).Inc()
	m.backendDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// RecordGuardDecision records the outcome of a session guard run.
func (m *Metrics) RecordGuardDecision(guard, decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(guard, decision).Inc()
}

// RecordCSRF records a CSRF fetch or sync.
func (m *Metrics) RecordCSRF(op string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "miss"
	}
	m.csrfSyncs.WithLabelValues(op, outcome).Inc()
}

// RecordStoreUpdate records a state container replacement.
func (m *Metrics) RecordStoreUpdate(container string) {
	if m == nil {
		return
	}
	m.storeUpdates.WithLabelValues(container).Inc()
}

// StatusClass maps an HTTP status to a low-cardinality label.
func StatusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status == 401 || status == 403 || status == 404:
		return strconv.Itoa(status)
	case status >= 200 && status < 600:
		return strconv.Itoa(status/100) + "xx"
	default:
		return "unknown"
	}
}
