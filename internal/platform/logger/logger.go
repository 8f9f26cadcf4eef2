package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger at the given level. Components take
// *slog.Logger directly; this package only owns handler construction.
func New(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// NewText returns a text logger for local development.
func NewText(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
