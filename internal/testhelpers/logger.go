package testhelpers

import (
	"github.com/myrjola/deduce/internal/logging"
	"io"
	"log/slog"
)

// NewLogger creates a debug level logger with the given log sink such as io.Discard or os.Stdout.
func NewLogger(logSink io.Writer) *slog.Logger {
	return logging.New(logSink, slog.LevelDebug)
}
