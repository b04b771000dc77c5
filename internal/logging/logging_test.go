package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	logger, err := New(Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Named("engine").Debug("step evaluated")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	require.True(t, strings.Contains(line, `"msg":"step evaluated"`), line)
	require.True(t, strings.Contains(line, `"logger":"engine"`), line)
}

func TestNewFiltersBelowLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiet.log")

	logger, err := New(Config{Level: "error", Format: "json", Output: path})
	require.NoError(t, err)
	logger.Info("ignored")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestGlobalLoggerInitialized(t *testing.T) {
	require.NotNil(t, Logger)
	require.NotNil(t, Sugar)
	require.NotNil(t, Component("api"))
}
