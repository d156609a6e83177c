package manager

import (
	"context"
	"sync"
	"time"
)

// fakeBackend is a minimal in-memory stand-in for client.BackendAdapter: it
// tracks the same three-state status progression (INITIALIZED -> CONFIGURED
// -> OPEN) the real backend reports, without any HTTP round trip.
type fakeBackend struct {
	mu         sync.Mutex
	status     string
	cfg        map[string]any
	resetDelay time.Duration
}

func newFakeBackend() *fakeBackend { return &fakeBackend{status: "INITIALIZED"} }

func (f *fakeBackend) Start(ctx context.Context) error { return f.Open(ctx) }
func (f *fakeBackend) Stop(ctx context.Context) error  { return f.Close(ctx) }

func (f *fakeBackend) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "OPEN"
	return nil
}

func (f *fakeBackend) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "CONFIGURED"
	return nil
}

func (f *fakeBackend) Reset(ctx context.Context) error {
	if err := sleepOrDone(ctx, f.resetDelay); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "INITIALIZED"
	return nil
}

func (f *fakeBackend) Kill(ctx context.Context) error { return f.Reset(ctx) }

func (f *fakeBackend) Status(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeBackend) Statistics(ctx context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *fakeBackend) SetConfig(ctx context.Context, cfg map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
	f.status = "CONFIGURED"
	return nil
}

func (f *fakeBackend) Config(ctx context.Context) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg, nil
}

// fakeWriter stands in for client.WriterAdapter: stopped/receiving/finished
// status, driven by Start/Stop/Reset plus a test-only setStatus hook for
// simulating the backend finishing an acquisition on its own.
type fakeWriter struct {
	mu         sync.Mutex
	status     string
	params     map[string]any
	resetDelay time.Duration
}

func newFakeWriter() *fakeWriter { return &fakeWriter{status: "stopped"} }

func (f *fakeWriter) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "receiving"
	return nil
}

func (f *fakeWriter) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "stopped"
	return nil
}

func (f *fakeWriter) Reset(ctx context.Context) error {
	if err := sleepOrDone(ctx, f.resetDelay); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "stopped"
	return nil
}

func (f *fakeWriter) Kill(ctx context.Context) error { return f.Reset(ctx) }

func (f *fakeWriter) Status(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeWriter) Statistics(ctx context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *fakeWriter) SetParameters(ctx context.Context, params map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = params
	return nil
}

func (f *fakeWriter) setStatus(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

// fakeDetector stands in for client.DetectorAdapter: idle/running status
// plus a named-value store for SetValue/GetValue.
type fakeDetector struct {
	mu     sync.Mutex
	status string
	cfg    map[string]any
	values map[string]any
}

func newFakeDetector() *fakeDetector {
	return &fakeDetector{status: "idle", values: map[string]any{}}
}

func (f *fakeDetector) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "running"
	return nil
}

func (f *fakeDetector) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "idle"
	return nil
}

func (f *fakeDetector) Reset(ctx context.Context) error { return f.Stop(ctx) }
func (f *fakeDetector) Kill(ctx context.Context) error  { return f.Stop(ctx) }

func (f *fakeDetector) Status(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeDetector) Statistics(ctx context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *fakeDetector) SetConfig(ctx context.Context, cfg map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
	return nil
}

func (f *fakeDetector) SetValue(ctx context.Context, name string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = value
	return nil
}

func (f *fakeDetector) GetValue(ctx context.Context, name string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name], nil
}

func (f *fakeDetector) setStatus(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

// fakeBsread stands in for client.BsreadAdapter, the shared aux-bus client
// to an already-running broker: Start is a no-op in production, but here it
// flips to "writing" so a single test call can drive the combined status
// tuple into the Running row without a separate setStatus call.
type fakeBsread struct {
	mu         sync.Mutex
	status     string
	params     map[string]any
	resetDelay time.Duration
}

func newFakeBsread() *fakeBsread { return &fakeBsread{status: "stopped"} }

func (f *fakeBsread) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "writing"
	return nil
}

func (f *fakeBsread) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "stopped"
	return nil
}

func (f *fakeBsread) Reset(ctx context.Context) error {
	if err := sleepOrDone(ctx, f.resetDelay); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = "stopped"
	return nil
}

func (f *fakeBsread) Kill(ctx context.Context) error { return f.Reset(ctx) }

func (f *fakeBsread) Status(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeBsread) Statistics(ctx context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *fakeBsread) SetParameters(ctx context.Context, params map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = params
	return nil
}

func (f *fakeBsread) setStatus(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
