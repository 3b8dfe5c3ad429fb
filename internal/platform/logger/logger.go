package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output in anything but dev so log
// shippers get structured records; text locally for readability.
func New(environment string) *slog.Logger {
	var handler slog.Handler
	if environment == "dev" {
		handler = slog.NewTextHandler(os.Stdout, nil)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	return slog.New(handler).With("service", "sentinelle")
}
