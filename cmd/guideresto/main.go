package main // Entry point package

import (
	"context"
	"os"

	"github.com/guideresto/guideresto/internal/config"   // Internal config loader
	"github.com/guideresto/guideresto/internal/console"  // Interactive menu loop
	"github.com/guideresto/guideresto/internal/database" // Connection and session
	"github.com/guideresto/guideresto/internal/logger"   // Root logger setup
	"github.com/guideresto/guideresto/internal/mapper"   // Data mappers
	"github.com/guideresto/guideresto/internal/service"  // Use-case services
)

func main() {
	cfg := config.Load()                     // Load environment config
	log := logger.New(cfg.Env, cfg.LogLevel) // Root logger

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	session := database.NewSession(db, log) // Single pinned session
	defer session.Close()

	mappers := mapper.NewMappers(session, log)
	guide := mapper.NewGuide(mappers, log)
	restaurants := service.NewRestaurantService(session, guide, mappers, log)
	evaluations := service.NewEvaluationService(session, mappers, log)

	ui := console.New(os.Stdin, os.Stdout, restaurants, evaluations, log)
	if err := ui.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("console loop failed")
	}
}
