package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02 15:04:05"

// New constructs a zerolog logger for the library. Debug mode produces
// human readable console logs, otherwise JSON is emitted for ingestion.
// Extra writers, when given, replace the default output.
func New(debug bool, level string, writers ...io.Writer) (*zerolog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	var output io.Writer
	switch {
	case len(writers) > 0:
		output = io.MultiWriter(writers...)
	case debug:
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat}
	default:
		output = os.Stdout
	}

	l := zerolog.New(output).With().Timestamp().Logger().Level(lvl)
	return &l, nil
}

// Nop returns a logger that discards everything, for tests and optional
// wiring.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func parseLevel(level string) (zerolog.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		level = zerolog.InfoLevel.String()
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, err
	}
	return lvl, nil
}
