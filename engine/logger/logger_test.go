package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestDefaultIsNoop(t *testing.T) {
	Set(nil)
	assert.NotPanics(t, func() {
		Info("before init", zap.String("k", "v"))
		Sync()
	})
}

func TestSetCapturesHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Debug("d")
	Info("i", zap.Int("n", 3))
	Warn("w")
	Error("e")
	Named("loader").Info("scoped")

	require.Equal(t, 5, logs.Len())
	assert.Equal(t, int64(3), logs.FilterMessage("i").All()[0].ContextMap()["n"])
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Equal(t, "loader", logs.FilterMessage("scoped").All()[0].LoggerName)
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsuki.log")
	cfg := FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1}

	require.NoError(t, InitWithFileConfig("debug", cfg, false))
	t.Cleanup(func() { Set(nil) })

	Info("file entry", zap.String("asset", "Fox.glb"))
	Debug("debug entry")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file entry")
	assert.Contains(t, string(data), "Fox.glb")
	assert.Contains(t, string(data), "debug entry")
}

func TestFileOutputRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsuki.log")

	require.NoError(t, InitWithFileConfig("warn", DefaultFileConfig(path), false))
	t.Cleanup(func() { Set(nil) })

	Info("hidden")
	Warn("shown")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}
