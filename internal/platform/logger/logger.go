package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Handlers, services, and
// workers receive it by injection rather than reaching for a global.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
