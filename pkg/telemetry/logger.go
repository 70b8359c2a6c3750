package telemetry

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/provisd/provisd/pkg/config"
)

// NewLogger builds the root logger from the logging settings. The console
// format is the human-facing default; json is for log shippers.
func NewLogger(cfg config.LoggingSettings) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger = logger.With().Timestamp().Logger()
	return logger.Level(parseLevel(cfg.Level))
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
