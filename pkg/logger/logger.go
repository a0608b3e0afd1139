// Package logger provides a structured zerolog logger for aprsinjector.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Init creates a zerolog.Logger writing to stderr. Supported levels: debug,
// info, warn, error (default info). Format "json" writes one JSON object
// per line; anything else uses the human-readable console writer.
func Init(level, format string) zerolog.Logger {
	return New(os.Stderr, level, format)
}

// New is Init with an explicit destination.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
