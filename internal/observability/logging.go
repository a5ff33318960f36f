package observability

import (
	"io"
	"log/slog"
)

// NewCommandLogger returns a text logger writing to w, for one-shot commands
// whose stdout carries data. Unknown levels fall back to info.
func NewCommandLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
