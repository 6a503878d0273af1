// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config for logger setup.
type Config struct {
	Level       string
	Service     string
	Environment string
}

// New builds the root logger. Development gets human-readable console
// output, everything else structured JSON.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Environment == "development" {
		writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log = zerolog.New(writer)
	} else {
		log = zerolog.New(os.Stdout)
	}

	return log.Level(level).With().
		Timestamp().
		Str("service", cfg.Service).
		Logger()
}
