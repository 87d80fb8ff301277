package cli

import (
	"io"
	"log/slog"
)

// configureLogging installs the default slog logger. Logs go to stderr so
// stdout carries only the report.
func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
