package main

import (
	"io"
	"log/slog"
)

// newLogger builds the process logger. log/slog's JSON handler writes
// machine-readable output suitable for log aggregators.
func newLogger(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}
