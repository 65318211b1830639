package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestLookupLevel(t *testing.T) {
	for _, name := range []string{"", "debug", "Info", "WARN", "warning", "error"} {
		_, ok := LookupLevel(name)
		assert.True(t, ok, name)
	}

	level, ok := LookupLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("mail received", "from", "foo")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "mail received", rec["msg"])
	assert.Equal(t, "foo", rec["from"])
}

func TestNewText(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "text"}, &buf).
		With("env", "e1").
		WithGroup("agent")

	logger.Debug("started", "addr", "foo")
	logger.Warn("late")

	out := buf.String()
	assert.Contains(t, out, "DBG started env=e1 agent.addr=foo")
	assert.Contains(t, out, "WRN late env=e1")
}
