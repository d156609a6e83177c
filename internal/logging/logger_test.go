package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxAddsCorrelationAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := NewTestLogger(&buf)

	ctx := ContextWithLogger(context.Background(), base)
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")

	Ctx(ctx).Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "corr-1", line["correlation_id"])
	assert.Equal(t, "hello", line["message"])
}

func TestAuditLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer SetLogger(NewTestLogger(nil))

	Audit().Info().Msg("starting acquisition")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit_trail", line["component"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("DEBUG").String())
	assert.Equal(t, "info", parseLevel("bogus").String())
	assert.Equal(t, "disabled", parseLevel("disabled").String())
}
