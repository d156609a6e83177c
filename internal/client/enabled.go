package client

import (
	"context"
	"sync/atomic"

	"github.com/psi-dia/integration-manager/internal/dia"
)

// EnabledClient wraps any Adapter with an on/off switch the manager can
// flip at runtime. It owns the adapter by composition rather than the
// adapter holding a back-reference to its wrapper, so there is no cycle to
// reason about when both sides need to change state concurrently.
//
// The enabled flag is an atomic.Bool rather than something guarded by the
// manager's mutex: Status/Statistics reads happen far more often than
// lifecycle mutators and must not contend with them.
type EnabledClient struct {
	name    string
	adapter Adapter
	enabled atomic.Bool
}

// NewEnabledClient wraps adapter, enabled by default.
func NewEnabledClient(name string, adapter Adapter) *EnabledClient {
	c := &EnabledClient{name: name, adapter: adapter}
	c.enabled.Store(true)
	return c
}

// Name returns the adapter's name for logging and metrics.
func (c *EnabledClient) Name() string { return c.name }

// Enabled reports whether the wrapped adapter currently participates in
// lifecycle operations.
func (c *EnabledClient) Enabled() bool { return c.enabled.Load() }

// SetEnabled flips the switch. Disabling does not stop a currently running
// adapter; it only changes how future calls through this wrapper behave.
func (c *EnabledClient) SetEnabled(v bool) { c.enabled.Store(v) }

// Adapter exposes the wrapped adapter for capability assertions (e.g.
// Openable, ValueAccessor) that callers need to reach directly.
func (c *EnabledClient) Adapter() Adapter { return c.adapter }

func (c *EnabledClient) Start(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.adapter.Start(ctx)
}

func (c *EnabledClient) Stop(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.adapter.Stop(ctx)
}

func (c *EnabledClient) Reset(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.adapter.Reset(ctx)
}

func (c *EnabledClient) Kill(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.adapter.Kill(ctx)
}

func (c *EnabledClient) Status(ctx context.Context) (string, error) {
	if !c.Enabled() {
		return StatusDisabled, nil
	}
	return c.adapter.Status(ctx)
}

func (c *EnabledClient) Statistics(ctx context.Context) (map[string]any, error) {
	if !c.Enabled() {
		return map[string]any{}, nil
	}
	return c.adapter.Statistics(ctx)
}

// SetParameters delegates to the wrapped adapter if it is Parameterizable.
func (c *EnabledClient) SetParameters(ctx context.Context, params map[string]any) error {
	if !c.Enabled() {
		return nil
	}
	p, ok := c.adapter.(Parameterizable)
	if !ok {
		return dia.New(dia.Internal, "%s: adapter does not accept parameters", c.name)
	}
	return p.SetParameters(ctx, params)
}

// SetConfig delegates to the wrapped adapter if it is Configurable.
func (c *EnabledClient) SetConfig(ctx context.Context, cfg map[string]any) error {
	if !c.Enabled() {
		return nil
	}
	cf, ok := c.adapter.(Configurable)
	if !ok {
		return dia.New(dia.Internal, "%s: adapter does not accept config", c.name)
	}
	return cf.SetConfig(ctx, cfg)
}

// Open delegates to the wrapped adapter if it is Openable.
func (c *EnabledClient) Open(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	o, ok := c.adapter.(Openable)
	if !ok {
		return dia.New(dia.Internal, "%s: adapter is not openable", c.name)
	}
	return o.Open(ctx)
}

// Close delegates to the wrapped adapter if it is Openable.
func (c *EnabledClient) Close(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	o, ok := c.adapter.(Openable)
	if !ok {
		return dia.New(dia.Internal, "%s: adapter is not openable", c.name)
	}
	return o.Close(ctx)
}

// SetValue delegates to the wrapped adapter if it is a ValueAccessor.
func (c *EnabledClient) SetValue(ctx context.Context, name string, value any) error {
	if !c.Enabled() {
		return nil
	}
	v, ok := c.adapter.(ValueAccessor)
	if !ok {
		return dia.New(dia.Internal, "%s: adapter does not expose named values", c.name)
	}
	return v.SetValue(ctx, name, value)
}

// GetValue delegates to the wrapped adapter if it is a ValueAccessor.
func (c *EnabledClient) GetValue(ctx context.Context, name string) (any, error) {
	if !c.Enabled() {
		return nil, nil
	}
	v, ok := c.adapter.(ValueAccessor)
	if !ok {
		return nil, dia.New(dia.Internal, "%s: adapter does not expose named values", c.name)
	}
	return v.GetValue(ctx, name)
}
