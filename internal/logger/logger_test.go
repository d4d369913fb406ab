package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewJSONToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.json")

	log, err := New(true, false, WithOutput(out), WithService("resume-matcher"))
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("scored", zap.Float64("score", 66))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "scored", entry["step"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "resume-matcher", entry["service"])
	assert.Equal(t, 66.0, entry["score"])
}

func TestNewDebugLevel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.txt")

	log, err := New(false, true, WithOutput(out))
	require.NoError(t, err)
	log.Debug("visible")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
	assert.Contains(t, string(data), "debug")
}
