/*
Package metrics provides Prometheus metrics collection and export for the
integration manager's REST surface, adapter circuit breakers, and derived
acquisition state.

Metrics are exposed at /metrics in Prometheus text format.

HTTP metrics:
  - dia_http_requests_total: total REST requests (counter), labels method/route/status
  - dia_http_request_duration_seconds: request latency (histogram), labels method/route
  - dia_http_requests_in_flight: requests currently being served (gauge)

Adapter metrics:
  - dia_circuit_breaker_state: per-adapter breaker state, 0/1/2 (gauge)
  - dia_circuit_breaker_transitions_total: breaker state changes (counter)
  - dia_subservice_request_errors_total: failed sub-service requests (counter)

Acquisition metrics:
  - dia_acquisition_state: 1 for the currently derived state, 0 for all others (gauge)
  - dia_last_config_successful: whether the last applied config reached every sub-service (gauge)
*/
package metrics
