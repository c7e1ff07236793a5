package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a configured slog.Logger based on configuration and
// installs it as the process default so code without an injected logger
// still lands in the same stream.
func NewLogger(cfg *Config) *slog.Logger {
	var logger *slog.Logger
	if cfg != nil && cfg.LogFormat == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	slog.SetDefault(logger)
	return logger
}
