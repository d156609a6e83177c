package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/psi-dia/integration-manager/internal/metrics"
)

// PrometheusMetrics records request count, latency, and in-flight gauge for
// every REST call. The route label prefers chi's matched pattern (e.g.
// "/detector/value/{name}") over the raw URL so parameterised paths
// don't create a new time series per value name.
func PrometheusMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		wrapper := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(wrapper, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(wrapper.statusCode), time.Since(start))
	}
}

// metricsResponseWriter wraps http.ResponseWriter to capture the status code
// written by the next handler in the chain.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
