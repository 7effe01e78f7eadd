package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Options configures the process-wide logger.
type Options struct {
	Level  string    // debug, info, warn or error
	Format string    // json or console
	Output io.Writer // defaults to os.Stderr
}

// Init initializes the default logger. Only the first call has any effect.
func Init(opts Options) {
	once.Do(func() {
		defaultLogger = build(opts)
	})
}

func build(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Get returns the default logger, initializing it with defaults if needed.
func Get() *zerolog.Logger {
	Init(Options{})
	return &defaultLogger
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Info logs an informational message with key/value pairs.
func Info(msg string, kv ...any) {
	Get().Info().Fields(kv).Msg(msg)
}

// Warn logs a warning message with key/value pairs.
func Warn(msg string, kv ...any) {
	Get().Warn().Fields(kv).Msg(msg)
}

// Error logs an error message with key/value pairs.
func Error(msg string, err error, kv ...any) {
	Get().Error().Err(err).Fields(kv).Msg(msg)
}

// Debug logs a debug message with key/value pairs.
func Debug(msg string, kv ...any) {
	Get().Debug().Fields(kv).Msg(msg)
}
