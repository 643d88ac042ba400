package cmd

import (
	"io"
	"log/slog"
	"os"
)

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(level string, format string) *slog.Logger {
	return newLogger(os.Stdout, level, format)
}

// newLogger builds the process logger. Every record carries the service name
// so logs stay attributable once shipped next to the probed services logs.
func newLogger(w io.Writer, level string, format string) *slog.Logger {
	programLevel := new(slog.LevelVar)
	programLevel.Set(parseLevel(level))
	options := &slog.HandlerOptions{
		Level:     programLevel,
		AddSource: programLevel.Level() == slog.LevelDebug,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	return slog.New(handler).With("service", "pulsewatch")
}
