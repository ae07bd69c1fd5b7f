package cmd

import (
	"log/slog"
	"os"
)

// reconcile shows its per-table route audit lines without --verbose.
const reconcileLogLevel = slog.LevelInfo

// newLogger returns the CLI logger. Logs go to stderr so stdout stays
// clean for progress lines and JSON output.
func newLogger(verbose bool) *slog.Logger {
	return newLeveledLogger(slog.LevelWarn, verbose)
}

// newLeveledLogger logs at level, or at debug when verbose.
func newLeveledLogger(level slog.Level, verbose bool) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
