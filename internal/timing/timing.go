// Package timing models the external timing system's process-variable
// channel as a small interface rather than linking CGo EPICS bindings: an
// out-of-scope collaborator reached over HTTP through a Channel-Access
// gateway, grounded on
// original_source/sf_dia/client/detector_timing_cli_client.py's epics.caput
// calls.
package timing

import (
	"context"
	"fmt"
	"time"

	"github.com/psi-dia/integration-manager/internal/client"
	"github.com/psi-dia/integration-manager/internal/dia"
)

// Channel pulses an integer event code onto a named process variable and
// waits for acknowledgement, bounded by a timeout — the Go-native
// equivalent of `epics.caput(pv, code, wait=True, timeout=caput_timeout)`.
type Channel interface {
	Pulse(ctx context.Context, pv string, code int, timeout time.Duration) error
}

// HTTPChannel implements Channel by POSTing to a Channel-Access gateway's
// REST bridge, the usual way a Go service reaches EPICS without CGo
// bindings.
type HTTPChannel struct {
	http *client.HTTPAdapter
}

// NewHTTPChannel builds an HTTPChannel backed by a gateway reachable at
// baseURL.
func NewHTTPChannel(baseURL string, cfg client.HTTPConfig) *HTTPChannel {
	return &HTTPChannel{http: client.NewHTTPAdapter("timing", baseURL, cfg)}
}

// Pulse writes code to pv via the gateway's /caput endpoint.
func (h *HTTPChannel) Pulse(ctx context.Context, pv string, code int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body := map[string]any{"pv": pv, "value": code}
	if _, err := h.http.PostJSON(ctx, "/caput", body); err != nil {
		return dia.Wrap(dia.SubserviceUnavailable, err, "caput %s=%d", pv, code)
	}
	return nil
}

// MockChannel is an in-memory Channel for tests: it records every pulse
// and returns a preconfigured error (or nil).
type MockChannel struct {
	Pulses []MockPulse
	Err    error
}

// MockPulse is one recorded call to MockChannel.Pulse.
type MockPulse struct {
	PV   string
	Code int
}

func (m *MockChannel) Pulse(ctx context.Context, pv string, code int, timeout time.Duration) error {
	m.Pulses = append(m.Pulses, MockPulse{PV: pv, Code: code})
	return m.Err
}

var _ Channel = (*HTTPChannel)(nil)
var _ Channel = (*MockChannel)(nil)

// ErrNoChannel is the error value for a missing timing channel. No
// function in this module returns it.
var ErrNoChannel = fmt.Errorf("timing channel not configured")
