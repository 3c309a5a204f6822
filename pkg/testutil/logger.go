package testutil

import (
	"io"
	"log/slog"
)

// NewTestLogger returns a logger that discards output, keeping test logs
// quiet while satisfying components that require one.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
