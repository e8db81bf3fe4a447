package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestFromAppConfig(t *testing.T) {
	t.Run("keeps configured values in development", func(t *testing.T) {
		cfg := FromAppConfig(config.AppConfig{Env: "development"}, config.LogConfig{Level: "debug", Format: "console", Output: "stderr"})
		assert.Equal(t, "debug", cfg.Level)
		assert.Equal(t, "console", cfg.Format)
		assert.Equal(t, "stderr", cfg.Output)
	})

	t.Run("forces json in production", func(t *testing.T) {
		cfg := FromAppConfig(config.AppConfig{Env: "production"}, config.LogConfig{Format: "console"})
		assert.Equal(t, "json", cfg.Format)
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "stdout", cfg.Output)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")

	log, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("voucher posted")
	log.Debug("suppressed")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"voucher posted"`)
	assert.NotContains(t, string(data), "suppressed")
}

func TestNew_UnwritableOutput(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "ledger.log")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open log file")
}

func TestNew_ConsoleToStdout(t *testing.T) {
	log, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
