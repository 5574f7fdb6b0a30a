package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewConsoleLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Console: &buf})
	l.Debug("hidden")
	l.Info("shown", zap.String("layer", "roads"))
	_ = l.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "roads")

	buf.Reset()
	l = New(Options{Console: &buf, Verbose: true})
	l.Debug("now shown")
	_ = l.Sync()
	assert.Contains(t, buf.String(), "now shown")
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raster.log")
	var console bytes.Buffer
	l := New(Options{Console: &console, File: path})
	l.Info("layer complete", zap.Int("drawn", 3))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "layer complete", entry["msg"])
	assert.EqualValues(t, 3, entry["drawn"])
}

func TestGetReturnsLogger(t *testing.T) {
	assert.NotNil(t, Get())
}
