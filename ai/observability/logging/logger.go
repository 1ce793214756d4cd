// Package logging configures the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
)

// Setup builds the slog logger for the given mode and installs it as
// the default. Dev mode logs human-readable text at debug level; prod
// logs JSON at info level.
func Setup(mode string) *slog.Logger {
	var handler slog.Handler
	if mode == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
