package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"eshop/internal/api/handlers"
	"eshop/internal/api/middleware"
	"eshop/internal/config"
	"eshop/internal/logger"
	"eshop/internal/models"
	"eshop/internal/services"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, svc *services.Container) *Server {
	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	// Initialize handlers
	productHandler := handlers.NewProductHandler(svc.Products, logger)
	orderHandler := handlers.NewOrderHandler(svc.Orders, logger)
	invoiceHandler := handlers.NewInvoiceHandler(svc.Invoices, logger)
	flexibeeHandler := handlers.NewFlexibeeHandler(svc.Flexibee, logger)
	chatHandler := handlers.NewChatHandler(svc.Chat, svc.Telegram, logger)
	userHandler := handlers.NewUserHandler(svc.Users, logger)
	authHandler := handlers.NewAuthHandler(svc.Auth, logger)
	siteHandler := handlers.NewSiteHandler(svc.Site, logger)

	admin := middleware.RequireAuth(svc.Auth, models.RoleAdmin)
	customer := middleware.RequireAuth(svc.Auth, models.RoleUser)

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Products
		products := v1.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.POST("", admin, productHandler.Create)
			products.PUT("/:id", admin, productHandler.Update)
			products.DELETE("/:id", admin, productHandler.Delete)
		}

		// Categories
		categories := v1.Group("/categories")
		{
			categories.GET("", productHandler.Categories)
			categories.POST("", admin, productHandler.CreateCategory)
			categories.DELETE("/:id", admin, productHandler.DeleteCategory)
		}

		// Orders
		orders := v1.Group("/orders")
		{
			orders.POST("", middleware.OptionalAuth(svc.Auth), orderHandler.Checkout)
			orders.GET("", admin, orderHandler.List)
			orders.GET("/stats", admin, orderHandler.Stats)
			orders.GET("/export", admin, orderHandler.Export)
			orders.GET("/:id", admin, orderHandler.Get)
			orders.PUT("/:id/status", admin, orderHandler.UpdateStatus)
		}
		v1.GET("/account/orders", customer, orderHandler.AccountOrders)

		// Invoices
		invoices := v1.Group("/invoices", admin)
		{
			invoices.GET("", invoiceHandler.List)
			invoices.POST("", invoiceHandler.Generate)
			invoices.GET("/template", invoiceHandler.Template)
			invoices.POST("/template", invoiceHandler.SaveTemplate)
			invoices.GET("/:number/document", invoiceHandler.Document)
		}

		// FlexiBee
		flexibee := v1.Group("/flexibee", admin)
		{
			flexibee.GET("/settings", flexibeeHandler.Settings)
			flexibee.POST("/settings", flexibeeHandler.SaveSettings)
			flexibee.GET("/status", flexibeeHandler.Status)
			flexibee.POST("/test", flexibeeHandler.Test)
			flexibee.POST("/invoices", flexibeeHandler.SendInvoice)
			flexibee.GET("/invoices/:number/isdoc", flexibeeHandler.DownloadISDOC)
		}

		// Chat
		chat := v1.Group("/chat")
		{
			chat.GET("/settings", chatHandler.PublicSettings)
			chat.POST("/messages", chatHandler.PostMessage)
			chat.POST("/send-email", chatHandler.SendEmail)
			chat.POST("/send-messenger", chatHandler.SendMessenger)
			chat.POST("/send-telegram", chatHandler.SendTelegram)
			chat.GET("/sessions/:sessionKey/messages", chatHandler.Messages)
			chat.PUT("/sessions/:sessionKey/profile", chatHandler.UpdateProfile)
			chat.GET("/telegram/poll", admin, chatHandler.PollTelegram)

			chatAdmin := chat.Group("/admin", admin)
			{
				chatAdmin.GET("/sessions", chatHandler.Sessions)
				chatAdmin.POST("/reply", chatHandler.Reply)
				chatAdmin.POST("/sessions/:sessionKey/close", chatHandler.CloseSession)
				chatAdmin.GET("/settings", chatHandler.Settings)
				chatAdmin.POST("/settings", chatHandler.SaveSettings)
			}
		}

		// Users
		users := v1.Group("/users", admin)
		{
			users.GET("", userHandler.List)
			users.POST("", userHandler.Create)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
			users.GET("/:id/2fa", userHandler.TwoFactorSetup)
			users.POST("/:id/2fa", userHandler.EnableTwoFactor)
			users.DELETE("/:id/2fa", userHandler.DisableTwoFactor)
		}

		// Auth
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/admin/login", authHandler.AdminLogin)
			authGroup.POST("/admin/verify-2fa", authHandler.VerifyTwoFactor)
			authGroup.GET("/admin/list", admin, authHandler.AdminList)
			authGroup.POST("/customer/login", authHandler.CustomerLogin)
			authGroup.POST("/customer/register", authHandler.Register)
			authGroup.POST("/logout", authHandler.Logout)
		}

		// Site settings
		site := v1.Group("/site")
		{
			site.GET("/visual", siteHandler.Visual)
			site.POST("/visual", admin, siteHandler.SaveVisual)
			site.GET("/links", siteHandler.Links)
			site.POST("/links", admin, siteHandler.SaveLinks)
			site.GET("/menu", siteHandler.Menu)
			site.POST("/menu", admin, siteHandler.SaveMenu)
		}
		v1.GET("/site-settings", siteHandler.SiteSettings)
		v1.POST("/site-settings", admin, siteHandler.SaveSiteSettings)
		v1.GET("/admin-menu", admin, siteHandler.AdminMenu)
		v1.POST("/admin-menu", admin, siteHandler.SaveAdminMenu)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// GetRouter returns the Gin router for serverless deployments
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
