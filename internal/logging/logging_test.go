package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipmon/internal/logging"
)

func TestParseFormat(t *testing.T) {
	assert.Equal(t, logging.FormatText, logging.ParseFormat("TEXT"))
	assert.Equal(t, logging.FormatText, logging.ParseFormat("tint"))
	assert.Equal(t, logging.FormatJSON, logging.ParseFormat("json"))
	assert.Equal(t, logging.FormatAuto, logging.ParseFormat("whatever"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("loud"))
}

func TestNew_AutoOnPipeIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.Options{Format: logging.FormatAuto})
	log.Info("clipboard changed", "kind", "text")
	log.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "clipboard changed", rec["msg"])
	assert.Equal(t, "text", rec["kind"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.Options{Format: logging.FormatText, Level: "debug"})
	log.Debug("shown", "k", "v")

	assert.Contains(t, buf.String(), "shown")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestNew_InteractiveDefaultsToDebugTint(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.Options{Format: logging.FormatAuto, Interactive: true})
	log.Debug("poll", "hash", "abc")

	assert.Contains(t, buf.String(), "poll")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestNew_ExplicitLevelWins(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.Options{Format: logging.FormatJSON, Level: "warn", Interactive: true})
	log.Info("quiet")
	log.Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "loud", rec["msg"])
}

func TestIsTTY_NonFile(t *testing.T) {
	assert.False(t, logging.IsTTY(&bytes.Buffer{}))
}
