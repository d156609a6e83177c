/*
Package middleware provides HTTP middleware for the integration manager's
REST surface: request ID tracking for distributed tracing and Prometheus
request instrumentation.

The typical stack for an endpoint is:

	router.Use(middleware.RequestID)
	router.Use(middleware.PrometheusMetrics)

See also internal/api (handlers wrapped by this middleware) and
internal/metrics (the Prometheus metric definitions PrometheusMetrics
records into).
*/
package middleware
