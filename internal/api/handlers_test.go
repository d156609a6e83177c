package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi-dia/integration-manager/internal/client"
	"github.com/psi-dia/integration-manager/internal/manager"
	"github.com/psi-dia/integration-manager/internal/pipeline"
	"github.com/psi-dia/integration-manager/internal/timing"
)

// fakeAdapter is a minimal in-memory Adapter implementing every capability
// interface, so it can stand in for any one of the three per-detector
// clients or the shared aux-bus client in router-level tests. Handler
// behavior, not sub-service wire parsing, is the unit under test here.
// Its status advances to configuredStatus (if set) the first time
// SetConfig/SetParameters runs, so a test can drive a pipeline from
// Initialized through Configured the same way a real backend client would
// report CONFIGURED once it has accepted a configuration.
type fakeAdapter struct {
	status           string
	configuredStatus string
	cfg              map[string]any
	values           map[string]any
}

func newFakeAdapter(status string) *fakeAdapter {
	return &fakeAdapter{status: status, cfg: map[string]any{}, values: map[string]any{}}
}

func newConfigurableFakeAdapter(status, configuredStatus string) *fakeAdapter {
	a := newFakeAdapter(status)
	a.configuredStatus = configuredStatus
	return a
}

func (f *fakeAdapter) Start(ctx context.Context) error { return nil }
func (f *fakeAdapter) Stop(ctx context.Context) error  { return nil }
func (f *fakeAdapter) Reset(ctx context.Context) error { return nil }
func (f *fakeAdapter) Kill(ctx context.Context) error  { return nil }
func (f *fakeAdapter) Status(ctx context.Context) (string, error) {
	return f.status, nil
}
func (f *fakeAdapter) Statistics(ctx context.Context) (map[string]any, error) {
	return map[string]any{"frames": 1}, nil
}
func (f *fakeAdapter) Open(ctx context.Context) error  { return nil }
func (f *fakeAdapter) Close(ctx context.Context) error { return nil }
func (f *fakeAdapter) SetConfig(ctx context.Context, cfg map[string]any) error {
	f.cfg = cfg
	if f.configuredStatus != "" {
		f.status = f.configuredStatus
	}
	return nil
}
func (f *fakeAdapter) Config(ctx context.Context) (map[string]any, error) { return f.cfg, nil }
func (f *fakeAdapter) SetParameters(ctx context.Context, params map[string]any) error {
	f.cfg = params
	if f.configuredStatus != "" {
		f.status = f.configuredStatus
	}
	return nil
}
func (f *fakeAdapter) SetValue(ctx context.Context, name string, value any) error {
	f.values[name] = value
	return nil
}
func (f *fakeAdapter) GetValue(ctx context.Context, name string) (any, error) {
	return f.values[name], nil
}

func newTestRouter(t *testing.T) (http.Handler, *manager.Manager) {
	t.Helper()

	backend := client.NewEnabledClient("backend", newConfigurableFakeAdapter("INITIALIZED", "CONFIGURED"))
	writer := client.NewEnabledClient("writer", newFakeAdapter("stopped"))
	detector := client.NewEnabledClient("detector", newFakeAdapter("idle"))
	bsread := client.NewEnabledClient("bsread", newFakeAdapter("stopped"))

	p := pipeline.New("JF01", detector, backend, writer)
	mgr := manager.New(map[string]*pipeline.Pipeline{"JF01": p}, bsread, &timing.MockChannel{}, manager.DefaultConfig())

	h := NewHandler(mgr)
	return NewRouter(h, promhttp.Handler()), mgr
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestStatusReportsInitialized(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/status", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["state"])
	assert.Equal(t, "initialized", body["status"])
}

func TestSetConfigThenGetConfigRoundTrips(t *testing.T) {
	router, _ := newTestRouter(t)

	fileFormat := map[string]any{
		"general/created":    "2026-07-31",
		"general/user":       "e12345",
		"general/process":    "sf_dia",
		"general/instrument": "alvra",
	}
	writer := map[string]any{"output_file": "/tmp/run1", "n_frames": 10, "user_id": 20000}
	bsread := map[string]any{"output_file": "/tmp/run1", "user_id": 20000}
	for k, v := range fileFormat {
		writer[k] = v
		bsread[k] = v
	}

	cfg := map[string]any{
		"writer":   writer,
		"backend":  map[string]any{"bit_depth": 16, "n_frames": 10},
		"detector": map[string]any{"dr": 16, "exptime": 0.1, "cycles": 10},
		"bsread":   bsread,
	}

	rec := doRequest(t, router, http.MethodPost, "/config", cfg)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	got := body["config"].(map[string]any)
	gotWriter := got["writer"].(map[string]any)
	assert.Equal(t, "/tmp/run1.h5", gotWriter["output_file"])
}

func TestSetConfigRejectsEmptyBodyAsBadRequest(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/config", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "bad_request", body["reason"])
}

func TestStartRejectedFromInitializedReturnsConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/start", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["state"])
	assert.Equal(t, "wrong_state", body["reason"])
}

func TestBackendActionRejectsUnknownActionAsBadRequest(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/backend/action/launch_missiles", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "bad_request", body["reason"])
}

func TestDetectorSetValueThenGetValue(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/detector/value/threshold", map[string]any{"value": 42})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/detector/value/threshold", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	values := body["value"].(map[string]any)
	assert.InDelta(t, 42, values["JF01"], 0.001)
}

func TestClientsEnabledGetAndSet(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/clients_enabled", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["bsread"])

	disable := false
	rec = doRequest(t, router, http.MethodPost, "/clients_enabled", map[string]any{"bsread": &disable})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["bsread"])
}

func TestMetricsEndpointExposesPrometheusFormat(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dia_http_requests_total")
}

func TestRequestIDHeaderPresentOnEveryResponse(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/status", nil)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
