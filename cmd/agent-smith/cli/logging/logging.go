// Package logging configures the process-wide slog logger. Logs go to
// stderr so hook output never pollutes stdout, which Claude Code may
// capture. Level comes from LOG_LEVEL and defaults to warn, matching the
// quiet-by-default behavior expected of a hook command.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// LevelEnvVar controls verbosity: debug, info, warn, or error.
const LevelEnvVar = "LOG_LEVEL"

// Init installs the default logger. Call once, early in main.
func Init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv(LevelEnvVar)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
