package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vision/internal/env"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(env.Production, WithOutput(&buf))

	log.Debug("hidden")
	log.Info("image loaded", "title", "cat", "height", 224)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "image loaded", rec["msg"])
	assert.Equal(t, "cat", rec["title"])
}

func TestNew_DevelopmentUsesTint(t *testing.T) {
	var buf bytes.Buffer
	log := New(env.Development, WithOutput(&buf), WithLevel(slog.LevelWarn))

	log.Info("dropped")
	log.Warn("kept", "k", "v")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNew_LogToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "vision.log")
	var buf bytes.Buffer
	log := New(env.Development, WithOutput(&buf), WithLogToFile(true), WithLogFile(path))

	log.With("run", 1).Info("written twice")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written twice"`)
	assert.Contains(t, string(data), `"run":1`)
	assert.Contains(t, buf.String(), "written twice")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
