package timing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi-dia/integration-manager/internal/client"
	"github.com/psi-dia/integration-manager/internal/dia"
)

func TestMockChannelRecordsPulses(t *testing.T) {
	m := &MockChannel{}
	require.NoError(t, m.Pulse(t.Context(), "MTEST-PV", 1, time.Second))
	require.Len(t, m.Pulses, 1)
	assert.Equal(t, "MTEST-PV", m.Pulses[0].PV)
	assert.Equal(t, 1, m.Pulses[0].Code)
}

func TestHTTPChannelPulseSendsCaput(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/caput", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"state":"ok"}`))
	}))
	defer srv.Close()

	ch := NewHTTPChannel(srv.URL, client.HTTPConfig{Timeout: time.Second, RetryN: 1, RetryDelay: time.Millisecond})
	err := ch.Pulse(t.Context(), "MTEST-START", 4, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "MTEST-START", received["pv"])
	assert.Equal(t, float64(4), received["value"])
}

func TestHTTPChannelPulseReturnsSubserviceUnavailableOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ch := NewHTTPChannel(srv.URL, client.HTTPConfig{Timeout: time.Second, RetryN: 1, RetryDelay: time.Millisecond})
	err := ch.Pulse(t.Context(), "MTEST-STOP", 0, time.Second)
	require.Error(t, err)
	assert.Equal(t, dia.SubserviceUnavailable, dia.KindOf(err))
}
