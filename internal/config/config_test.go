package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "REPORT_TTL", "STRICT", "FLUSH_ON_EOF", "FOLLOW", "HTTP_ADDR"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, time.Hour, cfg.ReportTTL)
	assert.False(t, cfg.Strict)
	assert.False(t, cfg.FlushOnEOF)
	assert.False(t, cfg.Follow)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REPORT_TTL", "15m")
	t.Setenv("STRICT", "true")
	t.Setenv("FLUSH_ON_EOF", "true")
	t.Setenv("FOLLOW", "true")
	t.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 15*time.Minute, cfg.ReportTTL)
	assert.True(t, cfg.Strict)
	assert.True(t, cfg.FlushOnEOF)
	assert.True(t, cfg.Follow)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad duration", key: "REPORT_TTL", value: "soon"},
		{name: "negative duration", key: "REPORT_TTL", value: "-1m"},
		{name: "bad bool", key: "STRICT", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, parseLogLevel(input), input)
	}
}
