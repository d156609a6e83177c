package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/psi-dia/integration-manager/internal/dia"
	"github.com/psi-dia/integration-manager/internal/logging"
	"github.com/psi-dia/integration-manager/internal/metrics"
)

// HTTPConfig bounds a single sub-service's HTTP traffic: per-call timeout,
// a bounded retry budget for transient failures, and the delay between
// attempts. Mirrors EXTERNAL_PROCESS_COMMUNICATION_TIMEOUT/_RETRY_N/
// _RETRY_DELAY in original_source/sf_dia/config.py.
type HTTPConfig struct {
	Timeout    time.Duration
	RetryN     int
	RetryDelay time.Duration
}

// HTTPAdapter is the transport every HTTP-only and external-process
// sub-service client is built on: bounded timeout, retried JSON calls, and
// a circuit breaker keyed by adapter name so a wedged sub-service trips
// open instead of every caller re-paying the full retry budget.
type HTTPAdapter struct {
	name    string
	baseURL string
	cfg     HTTPConfig
	hc      *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewHTTPAdapter builds an HTTPAdapter for a sub-service reachable at
// baseURL. name identifies it in logs, metrics, and breaker state.
func NewHTTPAdapter(name, baseURL string, cfg HTTPConfig) *HTTPAdapter {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.RetryN)
		},
		OnStateChange: func(breakerName string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(breakerName, float64(to))
			metrics.RecordCircuitBreakerTransition(breakerName, from.String(), to.String())
		},
	}

	return &HTTPAdapter{
		name:    name,
		baseURL: baseURL,
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Name returns the adapter name used for breaker/metric labelling.
func (h *HTTPAdapter) Name() string { return h.name }

// BreakerState reports the current circuit breaker state as a string
// ("closed"/"half-open"/"open") for the /metrics gauge.
func (h *HTTPAdapter) BreakerState() string { return h.breaker.State().String() }

// jsonEnvelope mirrors the {"state": "ok"|"error", ...} shape every
// sub-service in original_source/ returns.
type jsonEnvelope struct {
	State   string          `json:"state"`
	Message string          `json:"message,omitempty"`
	Status  json.RawMessage `json:"status,omitempty"`
}

// get issues a GET against path and returns the raw response body,
// retried up to cfg.RetryN times on transport error or a non-"ok" state.
func (h *HTTPAdapter) get(ctx context.Context, path string) ([]byte, error) {
	return h.doWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path, nil)
	})
}

// Get is the exported form of get, for callers outside this package that
// need to drive an HTTPAdapter directly (internal/timing's gateway
// channel).
func (h *HTTPAdapter) Get(ctx context.Context, path string) ([]byte, error) {
	return h.get(ctx, path)
}

// postJSON issues a POST of body (marshalled to JSON) against path,
// retried the same way.
func (h *HTTPAdapter) postJSON(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, dia.Wrap(dia.Internal, err, "%s: marshal request body for %s", h.name, path)
	}

	return h.doWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// PostJSON is the exported form of postJSON, for the same cross-package
// callers Get serves.
func (h *HTTPAdapter) PostJSON(ctx context.Context, path string, body any) ([]byte, error) {
	return h.postJSON(ctx, path, body)
}

func (h *HTTPAdapter) doWithRetry(ctx context.Context, build func(context.Context) (*http.Request, error)) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= h.cfg.RetryN; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, dia.Wrap(dia.SubserviceUnavailable, ctx.Err(), "%s: cancelled during retry backoff", h.name)
			case <-time.After(h.cfg.RetryDelay):
			}
		}

		body, err := h.breaker.Execute(func() ([]byte, error) {
			req, err := build(ctx)
			if err != nil {
				return nil, err
			}

			resp, err := h.hc.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, err
			}

			if resp.StatusCode >= 300 {
				return raw, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL)
			}

			var env jsonEnvelope
			if err := json.Unmarshal(raw, &env); err == nil && env.State != "" && env.State != "ok" {
				return raw, fmt.Errorf("%s reported state %q: %s", h.name, env.State, env.Message)
			}

			return raw, nil
		})

		if err == nil {
			return body, nil
		}

		lastErr = err
		logging.CtxDebug(ctx).Err(err).Str("adapter", h.name).Int("attempt", attempt).Msg("sub-service call failed, retrying")
	}

	metrics.RecordSubserviceError(h.name)
	return nil, dia.Wrap(dia.SubserviceUnavailable, lastErr, "%s: exhausted %d retries", h.name, h.cfg.RetryN)
}
