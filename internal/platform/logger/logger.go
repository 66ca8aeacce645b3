package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger writing to stdout. Services receive it
// through their WithLogger options.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
