package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"todo-manager/backend/internal/config"
)

// Setup configures the global zerolog logger and returns it.
func Setup(cfg config.LogConfig) zerolog.Logger {
	return setup(cfg, os.Stdout)
}

func setup(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02_15:04:05"}
	}

	logger := zerolog.New(out).With().Timestamp().Str("service", "todo-manager").Logger()
	log.Logger = logger
	return logger
}
