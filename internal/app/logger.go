package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the slog.Logger for a binary. Production runs emit
// JSON; anything else gets the readable text handler with source locations.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{})
		return slog.New(handler).With(slog.String("service", "backhouse"))
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	return slog.New(handler).With(slog.String("service", "backhouse"))
}
