package app

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger. format "json" selects the JSON
// handler; anything else stays human readable. Unknown levels fall back to info.
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{AddSource: lvl <= slog.LevelDebug, Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
