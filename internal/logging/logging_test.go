package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range cases {
		got, ok := ParseLevel(name)
		require.True(t, ok, name)
		require.Equal(t, want, got, name)
	}
	got, ok := ParseLevel("loud")
	require.False(t, ok)
	require.Equal(t, slog.LevelInfo, got)
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New("debug", "json", &buf), "console")
	logger.Debug("hello", "n", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "hello", rec["msg"])
	require.Equal(t, "console", rec["component"])
	require.Equal(t, float64(1), rec["n"])
}

func TestNew_TextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "text", &buf)
	logger.Info("dropped")
	require.Empty(t, buf.String())
	logger.Warn("kept")
	require.Contains(t, buf.String(), "msg=kept")
}

func TestNew_InvalidLevelWarns(t *testing.T) {
	var buf bytes.Buffer
	New("loud", "text", &buf)
	require.Contains(t, buf.String(), "invalid log level")
}
