// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// parseLevel maps a configured level name onto a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// setupLogger installs the process-wide slog logger writing to w.
// Every record carries the service name so log shippers can route it.
func setupLogger(w io.Writer, level, format string) *slog.Logger {
	logLevel := parseLevel(level)

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = tint.NewHandler(w, &tint.Options{Level: logLevel, TimeFormat: time.DateTime})
	}

	logger := slog.New(handler).With("service", "accounts")
	slog.SetDefault(logger)
	return logger
}
