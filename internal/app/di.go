package app

import (
	"log/slog"

	"fx-data/internal/fetch"
	"fx-data/internal/slogx"
	"fx-data/internal/store"
)

// ProvideConfig loads config from environment (for Wire).
func ProvideConfig() (*Config, error) {
	return LoadConfig()
}

// ProvideLogger builds the process logger: console at the configured level,
// plus a debug-level file under LogDir (for Wire). Also installed as the
// slog default. The log file stays open for the process lifetime.
func ProvideLogger(cfg *Config) *slog.Logger {
	log, _ := slogx.NewWithFile(cfg.LogLevel, cfg.LogDir)
	slog.SetDefault(log)
	return log
}

// ProvideFetchClient creates the feed client from config (for Wire).
func ProvideFetchClient(cfg *Config, log *slog.Logger) *fetch.Client {
	return fetch.NewClient(fetch.Config{
		BaseURL:          cfg.BaseURL,
		UserAgent:        cfg.UserAgent,
		RawDir:           cfg.RawDir(),
		MaxRetries:       cfg.MaxRetries,
		RetryDelay:       cfg.RetryDelay,
		RateLimitBackoff: cfg.RateLimitBackoff,
		HTTPTimeout:      cfg.HTTPTimeout,
	}, log)
}

// ProvideWriter creates the bar dataset writer (for Wire).
func ProvideWriter(cfg *Config, log *slog.Logger) *store.Writer {
	return store.NewWriter(cfg.BarDir(), log)
}
