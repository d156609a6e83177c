package client

import "context"

// BackendAdapter talks to a detector's readout backend over HTTP. Grounded
// on detector_integration_api.client.backend_rest_client.BackendClient
// (referenced, not vendored, by original_source/sf_dia/client/detector_pipeline.py):
// open/close bracket the acquisition, separately from start/stop, since the
// backend connection can be held open across several acquisitions.
type BackendAdapter struct {
	http *HTTPAdapter
}

// NewBackendAdapter builds a BackendAdapter reachable at baseURL.
func NewBackendAdapter(name, baseURL string, cfg HTTPConfig) *BackendAdapter {
	return &BackendAdapter{http: NewHTTPAdapter(name, baseURL, cfg)}
}

// Name returns the underlying HTTP adapter's name.
func (b *BackendAdapter) Name() string { return b.http.Name() }

// BreakerState reports the circuit breaker state for /metrics.
func (b *BackendAdapter) BreakerState() string { return b.http.BreakerState() }

func (b *BackendAdapter) Open(ctx context.Context) error {
	_, err := b.http.get(ctx, "/open")
	return err
}

func (b *BackendAdapter) Close(ctx context.Context) error {
	_, err := b.http.get(ctx, "/close")
	return err
}

// Start is a Controllable alias for Open: the backend has no separate
// "start" concept of its own, but every adapter must satisfy Controllable
// so the pipeline can treat all three kinds uniformly where it needs to.
func (b *BackendAdapter) Start(ctx context.Context) error { return b.Open(ctx) }

// Stop is a Controllable alias for Close.
func (b *BackendAdapter) Stop(ctx context.Context) error { return b.Close(ctx) }

func (b *BackendAdapter) Reset(ctx context.Context) error {
	_, err := b.http.get(ctx, "/reset")
	return err
}

func (b *BackendAdapter) Kill(ctx context.Context) error {
	_, err := b.http.get(ctx, "/kill")
	return err
}

func (b *BackendAdapter) Status(ctx context.Context) (string, error) {
	body, err := b.http.get(ctx, "/status")
	if err != nil {
		return "", err
	}
	return extractStatus(body)
}

// Statistics returns the backend's metrics, matching manager.py's
// backend_client.get_metrics() call in get_metrics().
func (b *BackendAdapter) Statistics(ctx context.Context) (map[string]any, error) {
	body, err := b.http.get(ctx, "/metrics")
	if err != nil {
		return nil, err
	}
	return extractMap(body, "metrics")
}

func (b *BackendAdapter) SetConfig(ctx context.Context, cfg map[string]any) error {
	_, err := b.http.postJSON(ctx, "/config", cfg)
	return err
}

// Config returns the configuration most recently accepted by the backend.
func (b *BackendAdapter) Config(ctx context.Context) (map[string]any, error) {
	body, err := b.http.get(ctx, "/config")
	if err != nil {
		return nil, err
	}
	return extractMap(body, "config")
}
