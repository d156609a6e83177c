package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi-dia/integration-manager/internal/client"
)

type recordingAdapter struct {
	calls *[]string
	label string
}

func (r recordingAdapter) record(call string) { *r.calls = append(*r.calls, r.label+"."+call) }

func (r recordingAdapter) Start(ctx context.Context) error { r.record("start"); return nil }
func (r recordingAdapter) Stop(ctx context.Context) error  { r.record("stop"); return nil }
func (r recordingAdapter) Reset(ctx context.Context) error { r.record("reset"); return nil }
func (r recordingAdapter) Kill(ctx context.Context) error  { r.record("kill"); return nil }
func (r recordingAdapter) Status(ctx context.Context) (string, error) {
	return "idle", nil
}
func (r recordingAdapter) Statistics(ctx context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}
func (r recordingAdapter) Open(ctx context.Context) error  { r.record("open"); return nil }
func (r recordingAdapter) Close(ctx context.Context) error { r.record("close"); return nil }

func newTestPipeline(calls *[]string) *Pipeline {
	detector := client.NewEnabledClient("detector", recordingAdapter{calls: calls, label: "detector"})
	backend := client.NewEnabledClient("backend", recordingAdapter{calls: calls, label: "backend"})
	writer := client.NewEnabledClient("writer", recordingAdapter{calls: calls, label: "writer"})
	return New("JF01T03V01", detector, backend, writer)
}

func TestPipelineStartOrder(t *testing.T) {
	var calls []string
	p := newTestPipeline(&calls)

	require.NoError(t, p.Start(t.Context()))
	assert.Equal(t, []string{"backend.open", "writer.start", "detector.start"}, calls)
}

func TestPipelineStopOrder(t *testing.T) {
	var calls []string
	p := newTestPipeline(&calls)

	require.NoError(t, p.Stop(t.Context()))
	assert.Equal(t, []string{"detector.stop", "backend.close", "writer.stop"}, calls)
}

func TestPipelineResetOrder(t *testing.T) {
	var calls []string
	p := newTestPipeline(&calls)

	require.NoError(t, p.Reset(t.Context()))
	assert.Equal(t, []string{"detector.stop", "backend.reset", "writer.reset"}, calls)
}

func TestPipelineKillOrderDiffersFromReset(t *testing.T) {
	var calls []string
	p := newTestPipeline(&calls)

	require.NoError(t, p.Kill(t.Context()))
	assert.Equal(t, []string{"detector.stop", "backend.reset", "writer.kill"}, calls)
}
