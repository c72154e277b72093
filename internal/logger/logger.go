package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the application logger.
// format "console" switches to zerolog's human readable writer for local development.
func New(level, format string, loc *time.Location) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format, loc)
}

// NewWithWriter is New with an explicit output, used by tests.
func NewWithWriter(w io.Writer, level, format string, loc *time.Location) zerolog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	zerolog.TimestampFieldName = "ts"
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFunc = func() time.Time { return time.Now().In(loc) }

	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
