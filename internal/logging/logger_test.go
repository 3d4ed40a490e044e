package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNewWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "deca-extract", "info")
	log.Debug("hidden")
	log.Info("processed file", "file", "a.pdf")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "deca-extract", line["service"])
	require.Equal(t, "a.pdf", line["file"])
	require.Equal(t, "processed file", line["msg"])
}
