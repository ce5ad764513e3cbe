// main.go
package main

import (
	"context"
	"log"

	"payment-portal/cmd"
	"payment-portal/internal/data/repository"
	"payment-portal/internal/gateway"
	"payment-portal/internal/usecase"
	"payment-portal/internal/wire"
	"payment-portal/pkg/cache"
	"payment-portal/pkg/database"
	"payment-portal/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Apply schema
	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	// Webhook event dedup cache. Optional: without it every delivery goes
	// through the conditional updates, which stay correct either way.
	var dedup usecase.EventDeduper
	eventCache, err := cache.NewEventCache(config.Redis, logger)
	if err != nil {
		logger.Warn("Redis unavailable, webhook dedup disabled", zap.Error(err))
	} else {
		defer eventCache.Close()
		dedup = eventCache
		logger.Info("Redis connected successfully")
	}

	// Payment gateway client
	stripeClient := gateway.NewClient(config.Stripe, logger)

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, stripeClient, dedup, config, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
