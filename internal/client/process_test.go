package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleeperArgv spawns `sh -c "sleep 0.3"`, ignoring the writer-style argv
// builder contract, so the test exercises real process lifecycle plumbing
// (without an actual writer executable installed) against a process that
// exits on its own well within the test's terminate timeout, simulating a
// well-behaved writer that honors /stop.
func sleeperArgv(streamURL string, port int, params map[string]any) ([]string, error) {
	return []string{"-c", "sleep 0.3"}, nil
}

func newTestProcessAdapter(t *testing.T, baseURL string) *ExternalProcessAdapter {
	t.Helper()
	return NewExternalProcessAdapter(
		"test-writer", "sh", "tcp://stream", 0, "",
		sleeperArgv, baseURL,
		ProcessTimeouts{
			StartupWait: 10 * time.Millisecond,
			Terminate:   2 * time.Second,
			HTTP:        HTTPConfig{Timeout: time.Second, RetryN: 2, RetryDelay: 5 * time.Millisecond},
		},
	)
}

func TestExternalProcessAdapterStartRequiresParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state":"ok"}`))
	}))
	defer srv.Close()

	p := newTestProcessAdapter(t, srv.URL)
	err := p.Start(t.Context())
	require.Error(t, err)
}

func TestExternalProcessAdapterStartStopLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state":"ok","status":"running"}`))
	}))
	defer srv.Close()

	p := newTestProcessAdapter(t, srv.URL)
	require.NoError(t, p.SetParameters(t.Context(), map[string]any{"output_file": "/tmp/out.h5"}))
	require.NoError(t, p.Start(t.Context()))

	status, err := p.Status(t.Context())
	require.NoError(t, err)
	assert.NotEmpty(t, status)

	require.NoError(t, p.Stop(t.Context()))

	status, err = p.Status(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "stopped", status)
}

func TestExternalProcessAdapterStatusReportsStoppedWhenNeverStarted(t *testing.T) {
	p := newTestProcessAdapter(t, "http://127.0.0.1:1")
	status, err := p.Status(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "stopped", status)
}

func TestExternalProcessAdapterResetClearsParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state":"ok"}`))
	}))
	defer srv.Close()

	p := newTestProcessAdapter(t, srv.URL)
	require.NoError(t, p.SetParameters(t.Context(), map[string]any{"output_file": "/tmp/out.h5"}))
	require.NoError(t, p.Start(t.Context()))
	require.NoError(t, p.Reset(t.Context()))

	assert.Nil(t, p.parameters)
}
