// Package logging builds the zerolog logger shared by the client packages.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w. DEV gets a human readable console writer,
// every other environment gets JSON lines. An unknown level falls back to info.
func New(w io.Writer, env, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if env == "" || env == "DEV" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
