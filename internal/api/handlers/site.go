package handlers

import (
	"context"
	"errors"
	"net/http"

	"eshop/internal/logger"
	"eshop/internal/services/site"

	"github.com/gin-gonic/gin"
)

type SiteHandler struct {
	site   *site.Service
	logger *logger.Logger
}

func NewSiteHandler(site *site.Service, logger *logger.Logger) *SiteHandler {
	return &SiteHandler{
		site:   site,
		logger: logger,
	}
}

func (h *SiteHandler) Visual(c *gin.Context) {
	h.read(c, func(ctx context.Context) (interface{}, error) { return h.site.Visual(ctx) })
}

func (h *SiteHandler) SaveVisual(c *gin.Context) {
	h.write(c, func(ctx context.Context, body []byte) (interface{}, error) { return h.site.SaveVisual(ctx, body) })
}

func (h *SiteHandler) Links(c *gin.Context) {
	h.read(c, func(ctx context.Context) (interface{}, error) { return h.site.Links(ctx) })
}

func (h *SiteHandler) SaveLinks(c *gin.Context) {
	h.write(c, func(ctx context.Context, body []byte) (interface{}, error) { return h.site.SaveLinks(ctx, body) })
}

func (h *SiteHandler) Menu(c *gin.Context) {
	h.read(c, func(ctx context.Context) (interface{}, error) { return h.site.Menu(ctx) })
}

func (h *SiteHandler) SaveMenu(c *gin.Context) {
	h.write(c, func(ctx context.Context, body []byte) (interface{}, error) { return h.site.SaveMenu(ctx, body) })
}

func (h *SiteHandler) SiteSettings(c *gin.Context) {
	h.read(c, func(ctx context.Context) (interface{}, error) { return h.site.SiteSettings(ctx) })
}

func (h *SiteHandler) SaveSiteSettings(c *gin.Context) {
	h.write(c, func(ctx context.Context, body []byte) (interface{}, error) { return h.site.SaveSiteSettings(ctx, body) })
}

func (h *SiteHandler) AdminMenu(c *gin.Context) {
	h.read(c, func(ctx context.Context) (interface{}, error) { return h.site.AdminMenu(ctx) })
}

type adminMenuRequest struct {
	Menu []site.AdminMenuItem `json:"menu"`
}

func (h *SiteHandler) SaveAdminMenu(c *gin.Context) {
	var req adminMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu format"})
		return
	}

	if err := h.site.SaveAdminMenu(c.Request.Context(), req.Menu); err != nil {
		h.fail(c, err, "Failed to save admin menu")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": req.Menu})
}

func (h *SiteHandler) read(c *gin.Context, load func(ctx context.Context) (interface{}, error)) {
	value, err := load(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to read site settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": value})
}

func (h *SiteHandler) write(c *gin.Context, save func(ctx context.Context, body []byte) (interface{}, error)) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	value, err := save(c.Request.Context(), body)
	if err != nil {
		h.fail(c, err, "Failed to save site settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": value})
}

func (h *SiteHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, site.ErrInvalidSettings), errors.Is(err, site.ErrInvalidMenu):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
