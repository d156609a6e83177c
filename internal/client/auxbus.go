package client

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/psi-dia/integration-manager/internal/dia"
)

// BsreadAdapter is the shared auxiliary-bus client: unlike the per-detector
// writer, the bsread broker process is already running independently of
// this service, so Start is a no-op and Stop/Kill/Reset talk to it purely
// over HTTP. Grounded on original_source/sf_dia/client/databuffer_writer_client.py's
// DataBufferWriterClient, which the manager constructs as its single shared
// bsread_client.
type BsreadAdapter struct {
	http *HTTPAdapter
}

// NewBsreadAdapter builds a BsreadAdapter talking to the broker reachable at
// brokerURL.
func NewBsreadAdapter(name, brokerURL string, cfg HTTPConfig) *BsreadAdapter {
	return &BsreadAdapter{http: NewHTTPAdapter(name, brokerURL, cfg)}
}

// Start is a no-op: the broker process is already running independently of
// this service. Mirrors DataBufferWriterClient.start's "Noop - already
// running." comment.
func (b *BsreadAdapter) Start(ctx context.Context) error { return nil }

// Stop asks the broker to stop writing.
func (b *BsreadAdapter) Stop(ctx context.Context) error {
	_, err := b.http.get(ctx, "/stop")
	return err
}

// Reset mirrors DataBufferWriterClient.reset: it is just Stop.
func (b *BsreadAdapter) Reset(ctx context.Context) error {
	return b.Stop(ctx)
}

// Kill is best-effort: failures are not surfaced, matching the original's
// kill() which ignores _send_request_to_process's return value.
func (b *BsreadAdapter) Kill(ctx context.Context) error {
	_, _ = b.http.get(ctx, "/kill")
	return nil
}

// Status reports the broker's current status string.
func (b *BsreadAdapter) Status(ctx context.Context) (string, error) {
	body, err := b.http.get(ctx, "/status")
	if err != nil {
		return "", err
	}
	return extractStatus(body)
}

// Statistics returns the broker's full statistics envelope, unnested: the
// original returns the raw decoded response rather than picking a single
// field out of it.
func (b *BsreadAdapter) Statistics(ctx context.Context) (map[string]any, error) {
	body, err := b.http.get(ctx, "/statistics")
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, dia.Wrap(dia.Internal, err, "bsread: decode statistics response")
	}
	return out, nil
}

// SetParameters pushes process parameters to the broker, stopping it if it
// does not accept them in time — mirrors set_parameters's
// stop()-then-raise-RuntimeError fallback.
func (b *BsreadAdapter) SetParameters(ctx context.Context, params map[string]any) error {
	if _, err := b.http.postJSON(ctx, "/parameters", params); err != nil {
		_ = b.Stop(ctx)
		return dia.Wrap(dia.StartupFailed, err, "bsread: process did not accept parameters in time")
	}
	return nil
}

var _ Adapter = (*BsreadAdapter)(nil)
var _ Parameterizable = (*BsreadAdapter)(nil)
