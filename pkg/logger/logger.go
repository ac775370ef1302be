package logger

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger builds the JSON logger shared by every binary and sets it as
// the slog default.
func SetupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	applicationLogger := slog.New(handler)
	slog.SetDefault(applicationLogger)
	return applicationLogger
}
