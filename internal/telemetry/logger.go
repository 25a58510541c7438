package telemetry

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the JSON logger every binary injects into its
// components, tagged with the service name.
func NewLogger(serviceName, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(handler).With("service", serviceName)
}

// ParseLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
