// Package logging centralizes zerolog setup, grounded on the structured
// logging style used across urmzd-homai.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console-writer logger in debug runs and a compact JSON
// logger otherwise, matching the verbosity split spec.md §6 expects between
// development and unattended operation.
func New(debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	var output zerolog.ConsoleWriter
	if debug {
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(output).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
