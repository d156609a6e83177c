package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi-dia/integration-manager/internal/dia"
)

func validWriterConfig() map[string]any {
	return map[string]any{
		"n_frames":          10,
		"user_id":           20000,
		"output_file":       "/tmp/run1",
		"general/created":   "2026-07-31",
		"general/user":      "e12345",
		"general/process":   "sf_dia",
		"general/instrument": "alvra",
	}
}

func TestWriterAcceptsValidConfig(t *testing.T) {
	cfg := validWriterConfig()
	require.NoError(t, Writer(cfg))
	assert.Equal(t, "/tmp/run1.h5", cfg["output_file"])
}

func TestWriterSuffixingIsIdempotent(t *testing.T) {
	cfg := validWriterConfig()
	require.NoError(t, Writer(cfg))
	require.NoError(t, Writer(cfg))
	assert.Equal(t, "/tmp/run1.h5", cfg["output_file"])
}

func TestWriterRejectsMissingKey(t *testing.T) {
	cfg := validWriterConfig()
	delete(cfg, "n_frames")
	err := Writer(cfg)
	require.Error(t, err)
	assert.Equal(t, dia.InvalidConfig, dia.KindOf(err))
}

func TestWriterRejectsUnexpectedKey(t *testing.T) {
	cfg := validWriterConfig()
	cfg["surprise"] = true
	require.Error(t, Writer(cfg))
}

func TestWriterUserIDRangeBoundaries(t *testing.T) {
	cases := []struct {
		userID int
		ok     bool
	}{
		{9999, false},
		{10000, true},
		{29999, true},
		{30000, false},
	}
	for _, tc := range cases {
		cfg := validWriterConfig()
		cfg["user_id"] = tc.userID
		err := Writer(cfg)
		if tc.ok {
			assert.NoError(t, err, "user_id %d", tc.userID)
		} else {
			assert.Error(t, err, "user_id %d", tc.userID)
		}
	}
}

func TestWriterDevNullNotSuffixed(t *testing.T) {
	cfg := validWriterConfig()
	cfg["output_file"] = "/dev/null"
	require.NoError(t, Writer(cfg))
	assert.Equal(t, "/dev/null", cfg["output_file"])
}

func TestBackendRequiresMandatoryKeys(t *testing.T) {
	require.Error(t, Backend(map[string]any{"bit_depth": 16}))
	require.NoError(t, Backend(map[string]any{"bit_depth": 16, "n_frames": 10}))
}

func TestDetectorRequiresMandatoryKeys(t *testing.T) {
	require.Error(t, Detector(map[string]any{"dr": 16}))
	require.NoError(t, Detector(map[string]any{"dr": 16, "exptime": 0.1, "cycles": 10}))
}

func TestCrossDependenciesRejectsMismatchedBitDepth(t *testing.T) {
	writer := map[string]any{"n_frames": 10}
	backend := map[string]any{"bit_depth": 16, "n_frames": 10}
	detector := map[string]any{"dr": 32, "cycles": 10}

	err := CrossDependencies(writer, backend, detector)
	require.Error(t, err)
	assert.Equal(t, dia.InvalidConfig, dia.KindOf(err))
}

func TestCrossDependenciesAcceptsMatchingConfig(t *testing.T) {
	writer := map[string]any{"n_frames": 10}
	backend := map[string]any{"bit_depth": 16, "n_frames": 10}
	detector := map[string]any{"dr": 16, "cycles": 10}

	require.NoError(t, CrossDependencies(writer, backend, detector))
}
