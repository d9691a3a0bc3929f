// Package handler exposes the API as a single serverless function.
package handler

import (
	"net/http"
	"sync"

	"eshop/internal/api"
	"eshop/internal/config"
	"eshop/internal/database"
	"eshop/internal/events"
	"eshop/internal/logger"
	"eshop/internal/services"
)

var (
	once    sync.Once
	router  http.Handler
	initErr error
)

// initRouter builds the router on the first request and reuses it for the
// lifetime of the function instance.
func initRouter() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}
	if err := cfg.Validate(); err != nil {
		initErr = err
		return
	}
	log := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		initErr = err
		return
	}

	publisher := events.NewPublisher(cfg, log.Named("events"))
	router = api.New(cfg, log, services.New(cfg, log, db.DB, publisher)).GetRouter()
}

// Handler serves every request through the shared gin router.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(initRouter)
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Service unavailable"}`))
		return
	}
	router.ServeHTTP(w, r)
}
