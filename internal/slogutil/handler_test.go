package slogutil

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiagSource struct{ attrs []slog.Attr }

func (f fakeDiagSource) Diagnostics() []slog.Attr { return f.attrs }

func TestDiagnosticsHookAttachesRegisteredSources(t *testing.T) {
	RegisterDiagnostics("test_source", fakeDiagSource{attrs: []slog.Attr{
		slog.Int("pooled_segments", 7),
	}})
	defer UnregisterDiagnostics("test_source")

	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(WrapHandler(base))
	logger.Info("probe")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	group, ok := decoded["test_source"].(map[string]any)
	require.True(t, ok, "expected a test_source group in the log record")
	assert.Equal(t, float64(7), group["pooled_segments"])
}

func TestDiagnosticsHookOmitsUnregisteredSources(t *testing.T) {
	UnregisterDiagnostics("never_registered")

	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(WrapHandler(base))
	logger.Info("probe")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	_, present := decoded["never_registered"]
	assert.False(t, present)
}

func TestWithAttrsStillFlowThroughAlongsideDiagnostics(t *testing.T) {
	RegisterDiagnostics("another_source", fakeDiagSource{attrs: []slog.Attr{slog.String("state", "idle")}})
	defer UnregisterDiagnostics("another_source")

	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(WrapHandler(base))

	ctx := WithAttrs(context.Background(), slog.String("request_id", "abc123"))
	logger.InfoContext(ctx, "probe")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "abc123", decoded["request_id"])

	group, ok := decoded["another_source"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "idle", group["state"])
}
