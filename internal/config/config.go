package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level
	RawLogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// RedisURL enables the report store when set, e.g. redis://localhost:6379/0
	RedisURL  string        `env:"REDIS_URL"`
	ReportTTL time.Duration `env:"REPORT_TTL" envDefault:"1h"`

	// Strict aborts the run on the first line that fails to parse.
	Strict bool `env:"STRICT" envDefault:"false"`
	// FlushOnEOF emits a report for a game that has no ShutdownGame line
	// when the log ends.
	FlushOnEOF bool `env:"FLUSH_ON_EOF" envDefault:"false"`
	// Follow keeps reading the log as the server appends to it.
	Follow bool `env:"FOLLOW" envDefault:"false"`

	// HTTPAddr serves run status over HTTP when set, e.g. :8080
	HTTPAddr string `env:"HTTP_ADDR"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ReportTTL < 0 {
		return nil, fmt.Errorf("REPORT_TTL must not be negative, got %s", cfg.ReportTTL)
	}
	cfg.LogLevel = parseLogLevel(cfg.RawLogLevel)
	return &cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
