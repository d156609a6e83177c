package client

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi-dia/integration-manager/internal/dia"
)

func TestHTTPAdapterGetSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state":"ok","status":"running"}`))
	}))
	defer srv.Close()

	a := NewHTTPAdapter("test", srv.URL, HTTPConfig{Timeout: time.Second, RetryN: 2, RetryDelay: time.Millisecond})
	status, err := a.get(t.Context(), "/status")
	require.NoError(t, err)
	assert.Contains(t, string(status), "running")
}

func TestHTTPAdapterRetriesOnNonOkState(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n < 3 {
			w.Write([]byte(`{"state":"error","message":"not ready"}`))
			return
		}
		w.Write([]byte(`{"state":"ok"}`))
	}))
	defer srv.Close()

	a := NewHTTPAdapter("test", srv.URL, HTTPConfig{Timeout: time.Second, RetryN: 5, RetryDelay: time.Millisecond})
	_, err := a.get(t.Context(), "/status")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPAdapterExhaustsRetriesAndReturnsSubserviceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state":"error"}`))
	}))
	defer srv.Close()

	a := NewHTTPAdapter("test", srv.URL, HTTPConfig{Timeout: time.Second, RetryN: 2, RetryDelay: time.Millisecond})
	_, err := a.get(t.Context(), "/status")
	require.Error(t, err)
	assert.Equal(t, dia.SubserviceUnavailable, dia.KindOf(err))
}

func TestHTTPAdapterBreakerStateReporting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state":"ok"}`))
	}))
	defer srv.Close()

	a := NewHTTPAdapter("test", srv.URL, HTTPConfig{Timeout: time.Second, RetryN: 1, RetryDelay: time.Millisecond})
	assert.Equal(t, "closed", a.BreakerState())
}

func TestHTTPAdapterPostJSONSendsBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"state":"ok"}`))
	}))
	defer srv.Close()

	a := NewHTTPAdapter("test", srv.URL, HTTPConfig{Timeout: time.Second, RetryN: 1, RetryDelay: time.Millisecond})
	_, err := a.postJSON(t.Context(), "/config", map[string]any{"n_frames": 10})
	require.NoError(t, err)
	assert.Contains(t, gotBody, "n_frames")
}
