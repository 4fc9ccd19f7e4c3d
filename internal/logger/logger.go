package logger

import (
	"kickelo/internal/envfile"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// New builds the root logger. It reads .env first so that LOG_LEVEL applies
// before the configuration is loaded.
func New() zerolog.Logger {
	err := envfile.Load()
	logger := SetLevel(ParseLevel(os.Getenv("LOG_LEVEL")))
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring .env file")
	}
	return logger
}

func SetLevel(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	logger = logger.Level(level)

	return logger
}

// Console is the human readable logger used by the command line tool. It
// writes to stderr so command output on stdout stays parseable.
func Console(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().
		Timestamp().
		Logger().
		Level(level)
}

// ParseLevel falls back to info for empty or unknown levels.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

var Module = fx.Provide(New)
