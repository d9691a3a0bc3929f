package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"eshop/internal/config"
	"eshop/internal/database"
	"eshop/internal/events"
	"eshop/internal/logger"
	"eshop/internal/services"
	"eshop/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	// Initialize logger
	logger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// The worker consumes events, it never needs to publish them again.
	svc := services.New(cfg, logger, db.DB, events.NopPublisher{})

	// Initialize worker
	w := worker.New(cfg, logger, svc)

	// Start worker
	logger.Info("Starting worker...")
	w.Start(context.Background())

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	w.Stop()
}
