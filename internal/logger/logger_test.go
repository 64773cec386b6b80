package logger_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
)

func TestNew_AppliesDefaults(t *testing.T) {
	t.Parallel()

	l, err := logger.New(logger.Config{OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Debug("filtered at info level")
	l.Info("info message", logger.String("key", "value"))
}

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	cfg := logger.Config{Format: "xml"}
	cfg.SetDefaults()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, logger.FormatJSON, cfg.Format)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)

	console := logger.Config{Format: logger.FormatConsole}
	console.SetDefaults()
	assert.Equal(t, logger.FormatConsole, console.Format)
}

func TestComponent_AddsField(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	base := logger.NewFromZap(zap.New(core))

	log := logger.Component(base, "robots")
	log.Warn("robots fetch failed", logger.Error(errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "robots fetch failed", entries[0].Message)
	assert.Equal(t, "robots", entries[0].ContextMap()["component"])
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
}

func TestComponent_NilLogger(t *testing.T) {
	t.Parallel()

	log := logger.Component(nil, "crawler")
	require.NotNil(t, log)
	log.Info("does not panic")
}

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.log")
	l, err := logger.New(logger.Config{Level: "WARNING", OutputPaths: []string{path}})
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept", logger.Int("pages", 3))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"msg":"kept"`)
	assert.Contains(t, string(data), `"pages":3`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestNew_BadOutputPath(t *testing.T) {
	t.Parallel()

	_, err := logger.New(logger.Config{OutputPaths: []string{filepath.Join(t.TempDir(), "missing", "dir", "x.log")}})
	require.Error(t, err)
}
