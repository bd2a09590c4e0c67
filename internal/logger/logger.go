package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func New() zerolog.Logger {
	// For Google Cloud Logging, the level field name should be "severity".
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	dev := os.Getenv("ENV") == "development"
	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return logger.Level(levelFromEnv(os.Getenv("LOG_LEVEL"), dev))
}

func levelFromEnv(value string, dev bool) zerolog.Level {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value))); err == nil && value != "" {
		return lvl
	}
	if dev {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
