package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequestIncrementsCounterAndHistogram(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/status", "200"))
	RecordHTTPRequest("GET", "/status", "200", 10*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/status", "200"))
	assert.Equal(t, before+1, after)
}

func TestSetAcquisitionStateZeroesOtherStates(t *testing.T) {
	SetAcquisitionState("running")
	assert.Equal(t, float64(1), testutil.ToFloat64(AcquisitionState.WithLabelValues("running")))
	assert.Equal(t, float64(0), testutil.ToFloat64(AcquisitionState.WithLabelValues("configured")))

	SetAcquisitionState("configured")
	assert.Equal(t, float64(0), testutil.ToFloat64(AcquisitionState.WithLabelValues("running")))
	assert.Equal(t, float64(1), testutil.ToFloat64(AcquisitionState.WithLabelValues("configured")))
}

func TestSetLastConfigSuccessful(t *testing.T) {
	SetLastConfigSuccessful(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(LastConfigSuccessful))

	SetLastConfigSuccessful(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(LastConfigSuccessful))
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("backend-JF02T09V01", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("backend-JF02T09V01")))
}
