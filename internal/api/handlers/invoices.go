package handlers

import (
	"errors"
	"net/http"
	"strings"

	"eshop/internal/logger"
	"eshop/internal/services/invoice"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoices *invoice.Service
	logger   *logger.Logger
}

func NewInvoiceHandler(invoices *invoice.Service, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoices: invoices,
		logger:   logger,
	}
}

func (h *InvoiceHandler) List(c *gin.Context) {
	records, err := h.invoices.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch invoices")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

type generateRequest struct {
	OrderID         string `json:"orderId"`
	TemplateVersion string `json:"templateVersion"`
}

func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.OrderID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	inv, template, err := h.invoices.Generate(c.Request.Context(), req.OrderID, req.TemplateVersion)
	if err != nil {
		h.fail(c, err, "Failed to generate invoice")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": inv, "template": template})
}

// Document downloads the ISDOC file of an invoice.
func (h *InvoiceHandler) Document(c *gin.Context) {
	number := c.Param("number")
	data, err := h.invoices.Document(c.Request.Context(), number)
	if err != nil {
		h.fail(c, err, "Failed to render invoice")
		return
	}
	c.Header("Content-Disposition", invoice.ContentDisposition(number))
	c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
}

func (h *InvoiceHandler) Template(c *gin.Context) {
	template, err := h.invoices.Template(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to read invoice template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (h *InvoiceHandler) SaveTemplate(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	template, err := h.invoices.SaveTemplate(c.Request.Context(), body)
	if err != nil {
		h.fail(c, err, "Failed to save invoice template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (h *InvoiceHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, invoice.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, invoice.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
	case errors.Is(err, invoice.ErrInvalidTemplate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
