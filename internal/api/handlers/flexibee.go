package handlers

import (
	"errors"
	"net/http"
	"strings"

	"eshop/internal/logger"
	"eshop/internal/services/flexibee"
	"eshop/internal/services/invoice"

	"github.com/gin-gonic/gin"
)

type FlexibeeHandler struct {
	flexibee *flexibee.Service
	logger   *logger.Logger
}

func NewFlexibeeHandler(flexibee *flexibee.Service, logger *logger.Logger) *FlexibeeHandler {
	return &FlexibeeHandler{
		flexibee: flexibee,
		logger:   logger,
	}
}

// Settings returns the effective settings. Fields listed in envOverrides come
// from the environment and are not stored when posted back unchanged.
func (h *FlexibeeHandler) Settings(c *gin.Context) {
	settings, err := h.flexibee.Resolve(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to read FlexiBee settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":         settings.Masked(),
		"envOverrides": h.flexibee.EnvOverrides(),
	})
}

func (h *FlexibeeHandler) SaveSettings(c *gin.Context) {
	var settings flexibee.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.flexibee.SaveSettings(c.Request.Context(), settings)
	if err != nil {
		h.fail(c, err, "Failed to save FlexiBee settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": saved.Masked()})
}

func (h *FlexibeeHandler) Status(c *gin.Context) {
	status, err := h.flexibee.Status(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to read FlexiBee status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (h *FlexibeeHandler) Test(c *gin.Context) {
	if err := h.flexibee.TestConnection(c.Request.Context()); err != nil {
		h.fail(c, err, "FlexiBee connection test failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"ok": true}})
}

type exportRequest struct {
	InvoiceNumber string `json:"invoiceNumber"`
}

// SendInvoice exports an issued invoice to FlexiBee.
func (h *FlexibeeHandler) SendInvoice(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.InvoiceNumber) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoiceNumber is required"})
		return
	}

	result, err := h.flexibee.SendInvoice(c.Request.Context(), req.InvoiceNumber)
	if err != nil {
		h.fail(c, err, "Failed to export invoice")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *FlexibeeHandler) DownloadISDOC(c *gin.Context) {
	number := c.Param("number")
	data, err := h.flexibee.DownloadISDOC(c.Request.Context(), number)
	if err != nil {
		h.fail(c, err, "Failed to download ISDOC")
		return
	}
	c.Header("Content-Disposition", invoice.ContentDisposition(number))
	c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
}

func (h *FlexibeeHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, flexibee.ErrNotConfigured):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, invoice.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
	case errors.Is(err, flexibee.ErrAPI):
		h.logger.Warn("%s: %v", message, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
