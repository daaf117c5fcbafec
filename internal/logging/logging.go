package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the JSON logger every component receives. Level is parsed from
// level ("debug", "info", "warn", "error") and defaults to info.
func New(level, service string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, service)
}

func NewWithWriter(w io.Writer, level, service string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	return zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("service", service).
		Logger()
}
