package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"todo-manager/backend/internal/app"
	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(cfg.Log)

	application, err := app.Initialize(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	if err := application.Run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
