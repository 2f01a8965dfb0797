package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

// Output formats accepted by NewFromConfig.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New creates a new structured logger with default configuration
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Caller().Logger()
}

// NewWithWriter creates a new structured logger with a custom writer
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// NewFromConfig builds a logger writing to w at the given level.
// format is "console" for human-readable output or "json" for one JSON
// object per line. Unknown levels fall back to info.
func NewFromConfig(w io.Writer, level, format string) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if strings.EqualFold(format, FormatConsole) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Caller().Logger()
}

// ParseLevel converts a level name into a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a default logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return New()
}

// WithFields adds structured fields to a logger
func WithFields(logger zerolog.Logger, fields map[string]interface{}) zerolog.Logger {
	ctx := logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}
