package client

import "context"

// DetectorAdapter is the per-detector sensor command channel: it starts
// and stops the physical readout and exposes named values (thresholds,
// gains, ...) read and written outside the acquisition lifecycle. Grounded
// on detector_integration_api.client.detector_cli_client.DetectorClient.
//
// Unlike the writer/backend, the detector reports no meaningful statistics
// of its own; manager.py's get_metrics() hard-codes {} for it, so
// Statistics below does the same rather than calling out over HTTP.
type DetectorAdapter struct {
	http *HTTPAdapter
}

// NewDetectorAdapter builds a DetectorAdapter reachable at baseURL.
func NewDetectorAdapter(name, baseURL string, cfg HTTPConfig) *DetectorAdapter {
	return &DetectorAdapter{http: NewHTTPAdapter(name, baseURL, cfg)}
}

func (d *DetectorAdapter) Name() string        { return d.http.Name() }
func (d *DetectorAdapter) BreakerState() string { return d.http.BreakerState() }

func (d *DetectorAdapter) Start(ctx context.Context) error {
	_, err := d.http.get(ctx, "/start")
	return err
}

func (d *DetectorAdapter) Stop(ctx context.Context) error {
	_, err := d.http.get(ctx, "/stop")
	return err
}

// Reset is a no-op beyond Stop: the detector has no independent reset
// step, matching DetectorPipeline.reset's direct call to detector_client.stop().
func (d *DetectorAdapter) Reset(ctx context.Context) error { return d.Stop(ctx) }

// Kill is a no-op beyond Stop: DetectorPipeline.kill also only calls
// detector_client.stop(), never a detector-specific kill.
func (d *DetectorAdapter) Kill(ctx context.Context) error { return d.Stop(ctx) }

func (d *DetectorAdapter) Status(ctx context.Context) (string, error) {
	body, err := d.http.get(ctx, "/status")
	if err != nil {
		return "", err
	}
	return extractStatus(body)
}

// Statistics always returns an empty map; see the type doc comment.
func (d *DetectorAdapter) Statistics(ctx context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func (d *DetectorAdapter) SetConfig(ctx context.Context, cfg map[string]any) error {
	_, err := d.http.postJSON(ctx, "/config", cfg)
	return err
}

func (d *DetectorAdapter) SetValue(ctx context.Context, name string, value any) error {
	_, err := d.http.postJSON(ctx, "/value/"+name, map[string]any{"value": value})
	return err
}

func (d *DetectorAdapter) GetValue(ctx context.Context, name string) (any, error) {
	body, err := d.http.get(ctx, "/value/"+name)
	if err != nil {
		return nil, err
	}
	return extractValue(body)
}
