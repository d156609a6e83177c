// Package metrics exposes the integration manager's Prometheus instrumentation:
// HTTP request latency/throughput, per-adapter circuit breaker state, and the
// single derived acquisition state as a gauge an operator's dashboard can
// graph directly. Grounded on the promauto registration style of the
// teacher's metrics package, trimmed to this service's own concerns.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dia_http_requests_total",
			Help: "Total number of REST API requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dia_http_request_duration_seconds",
			Help:    "REST API request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dia_http_requests_in_flight",
			Help: "Number of REST API requests currently being served.",
		},
	)

	// CircuitBreakerState mirrors sony/gobreaker's three states per adapter
	// name: 0=closed, 1=half-open, 2=open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dia_circuit_breaker_state",
			Help: "Circuit breaker state per sub-service adapter (0=closed, 1=half-open, 2=open).",
		},
		[]string{"adapter"},
	)

	CircuitBreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dia_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions per adapter.",
		},
		[]string{"adapter", "from_state", "to_state"},
	)

	SubserviceRequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dia_subservice_request_errors_total",
			Help: "Total failed requests to a sub-service adapter.",
		},
		[]string{"adapter"},
	)

	// AcquisitionState is set to 1 for the currently derived
	// status.IntegrationState and 0 for every other known state, so a
	// dashboard can graph "current state" as a single stat panel.
	AcquisitionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dia_acquisition_state",
			Help: "1 for the currently derived acquisition state, 0 for all others.",
		},
		[]string{"state"},
	)

	LastConfigSuccessful = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dia_last_config_successful",
			Help: "1 if the most recently applied acquisition config reached every sub-service, 0 otherwise.",
		},
	)
)

// knownStates lists every status.IntegrationState value metrics knows how to
// zero out; kept here rather than importing internal/status to avoid a
// metrics->status->client import cycle concern down the line.
var knownStates = []string{
	"initialized", "configured", "running", "detector_stopped",
	"bsread_still_running", "finished", "error",
}

// RecordHTTPRequest records one completed REST API request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetCircuitBreakerState records the 0/1/2 state for a named adapter.
func SetCircuitBreakerState(adapter string, state float64) {
	CircuitBreakerState.WithLabelValues(adapter).Set(state)
}

// RecordCircuitBreakerTransition records a gobreaker state change.
func RecordCircuitBreakerTransition(adapter, from, to string) {
	CircuitBreakerTransitionsTotal.WithLabelValues(adapter, from, to).Inc()
}

// RecordSubserviceError records a failed request to a sub-service adapter.
func RecordSubserviceError(adapter string) {
	SubserviceRequestErrorsTotal.WithLabelValues(adapter).Inc()
}

// SetAcquisitionState zeroes every known state and sets current to 1.
func SetAcquisitionState(current string) {
	for _, s := range knownStates {
		if s == current {
			AcquisitionState.WithLabelValues(s).Set(1)
		} else {
			AcquisitionState.WithLabelValues(s).Set(0)
		}
	}
}

// SetLastConfigSuccessful records whether the last applied config reached
// every sub-service.
func SetLastConfigSuccessful(ok bool) {
	if ok {
		LastConfigSuccessful.Set(1)
	} else {
		LastConfigSuccessful.Set(0)
	}
}
