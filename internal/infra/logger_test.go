package infra

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

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "diskclean.log")
	cfg := DefaultLogConfig(filepath.Dir(file))
	assert.Equal(t, file, cfg.File)

	logger, level, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Debug("hidden at info level")
	logger.Info("cleaned", zap.String("path", "/tmp/x"), zap.Uint64("freed", 42))
	level.SetLevel(zap.DebugLevel)
	logger.Debug("visible after level change")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "cleaned", entry["msg"])
	assert.Equal(t, "/tmp/x", entry["path"])
	assert.Contains(t, entry, "time")
	assert.Equal(t, "info", entry["level"])
}

func TestNewLogger_StderrOnly(t *testing.T) {
	logger, level, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.Equal(t, zap.InfoLevel, level.Level())

	_, verbose, err := NewLogger(LogConfig{Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, zap.DebugLevel, verbose.Level())
}
