package logutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	require.Equal(t, zapcore.WarnLevel, ParseLevel(" warn "))
	require.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	require.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}

func TestInit_WritesFile(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	path := filepath.Join(t.TempDir(), "carprice.log")
	logger := Init(LogConfig{File: path, Level: "info", FileSize: 1, FileCount: 1})
	logger.Debug("hidden")
	zap.L().Info("artifact loaded", zap.String("version", "v1"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"artifact loaded"`)
	require.Contains(t, string(data), `"version":"v1"`)
	require.NotContains(t, string(data), "hidden")
}
