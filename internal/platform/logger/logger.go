// Package logger builds the process slog.Logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler encoding.
type Format int

const (
	JSON Format = iota
	Text
)

// New returns a structured logger writing to stdout. The level comes from LOG_LEVEL
// (debug, info, warn, error), defaulting to info.
func New(format Format) *slog.Logger {
	return NewWithWriter(os.Stdout, format, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// NewWithWriter is New with an explicit writer and level.
func NewWithWriter(w io.Writer, format Format, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == Text {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel maps a level name onto slog.Level; unknown names yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
