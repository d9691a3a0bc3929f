// Command createadmin creates a backoffice admin or resets the password of
// an existing one.
//
//	createadmin <email> <password> [name]
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"eshop/internal/config"
	"eshop/internal/database"
	"eshop/internal/logger"
	"eshop/internal/services/users"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: createadmin <email> <password> [name]")
		os.Exit(2)
	}
	email, password := os.Args[1], os.Args[2]
	name := ""
	if len(os.Args) > 3 {
		name = os.Args[3]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration:", err)
	}
	logger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	user, result, err := users.NewService(db.DB, logger).EnsureAdmin(context.Background(), email, password, name)
	if err != nil {
		logger.Fatal("Failed to create admin: %v", err)
	}

	switch result {
	case users.AdminCreated:
		logger.Info("Admin %s created", user.Email)
	case users.AdminPasswordReset:
		logger.Info("Admin %s already existed, password was reset", user.Email)
	case users.NotAnAdmin:
		logger.Warn("%s belongs to a customer account, nothing changed", user.Email)
		os.Exit(1)
	}
}
