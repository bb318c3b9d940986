package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the application logger. Local runs get a human readable
// console writer; anything else logs JSON lines.
func New(level string, pretty bool) *zerolog.Logger {
	return newWithWriter(level, pretty, os.Stdout)
}

func newWithWriter(level string, pretty bool, out io.Writer) *zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldInteger = true

	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05 MST",
		}
	}

	l := zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return &l
}

// Nop discards everything; handy in tests
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
