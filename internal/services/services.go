// Package services wires the domain services shared by the API and the
// worker.
package services

import (
	"eshop/internal/config"
	"eshop/internal/configstore"
	"eshop/internal/events"
	"eshop/internal/logger"
	"eshop/internal/services/auth"
	"eshop/internal/services/chat"
	"eshop/internal/services/flexibee"
	"eshop/internal/services/invoice"
	"eshop/internal/services/mailer"
	"eshop/internal/services/messenger"
	"eshop/internal/services/orders"
	"eshop/internal/services/products"
	"eshop/internal/services/site"
	"eshop/internal/services/telegram"
	"eshop/internal/services/users"

	"gorm.io/gorm"
)

type Container struct {
	Store     *configstore.Store
	Publisher events.Publisher

	Products *products.Service
	Orders   *orders.Service
	Invoices *invoice.Service
	Flexibee *flexibee.Service
	Chat     *chat.Service
	Telegram *telegram.Poller
	Users    *users.Service
	Auth     *auth.Service
	Site     *site.Service
}

func New(cfg *config.Config, log *logger.Logger, db *gorm.DB, publisher events.Publisher) *Container {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	store := configstore.New(db, log.Named("config"), cfg.DataDir)

	telegramClient := telegram.NewClient(cfg.Telegram.APIEndpoint, log.Named("telegram"))
	chatService := chat.NewService(db, store, log.Named("chat"), chat.Channels{
		Mailer:    mailer.New(cfg.SMTP, log.Named("mailer")),
		Publisher: publisher,
		Telegram:  telegramClient,
		Messenger: messenger.NewClient(cfg.Messenger.APIURL, log.Named("messenger")),
	})

	invoices := invoice.NewService(db, store, publisher, log.Named("invoice"))
	userService := users.NewService(db, log.Named("users"))
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiration)

	return &Container{
		Store:     store,
		Publisher: publisher,
		Products:  products.NewService(db, log.Named("products")),
		Orders:    orders.NewService(db, publisher, log.Named("orders")),
		Invoices:  invoices,
		Flexibee:  flexibee.NewService(store, invoices, cfg.Flexibee, log.Named("flexibee")),
		Chat:      chatService,
		Telegram:  telegram.NewPoller(chatService, store, telegramClient, log.Named("telegram")),
		Users:     userService,
		Auth:      auth.NewService(userService, tokens, auth.NewBlacklist(cfg.RedisURL, log), log.Named("auth")),
		Site:      site.NewService(store, log.Named("site")),
	}
}
