package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output. The services log
// degraded-mode warnings (failed usage writes, skipped import lines) that
// would otherwise drown test output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
