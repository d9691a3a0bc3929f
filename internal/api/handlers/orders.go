package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"eshop/internal/api/middleware"
	"eshop/internal/logger"
	"eshop/internal/services/orders"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OrderHandler struct {
	orders *orders.Service
	logger *logger.Logger
}

func NewOrderHandler(orders *orders.Service, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// Checkout places an order. Signed in customers get it linked to their
// account.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var input orders.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := ""
	if claims := middleware.Claims(c); claims != nil {
		userID = claims.UserID
	}

	order, err := h.orders.Create(c.Request.Context(), input, userID)
	if err != nil {
		h.fail(c, err, "Failed to create order")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

func (h *OrderHandler) List(c *gin.Context) {
	filter, ok := listFilter(c)
	if !ok {
		return
	}

	items, total, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err, "Failed to fetch orders")
		return
	}
	respondPage(c, items, filter.Page, filter.Limit, total)
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

type statusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Note)
	if err != nil {
		h.fail(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to compute order stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// Export downloads the filtered orders as an XLSX workbook.
func (h *OrderHandler) Export(c *gin.Context) {
	filter, ok := listFilter(c)
	if !ok {
		return
	}

	data, err := h.orders.Export(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err, "Failed to export orders")
		return
	}
	attachment(c, orders.ExportFilename(time.Now()), xlsxContentType, data)
}

// AccountOrders lists the orders of the signed in customer.
func (h *OrderHandler) AccountOrders(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	items, err := h.orders.ByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err, "Failed to fetch orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *OrderHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, orders.ErrInvalidOrder), errors.Is(err, orders.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func listFilter(c *gin.Context) (orders.ListFilter, bool) {
	page, limit := pageParams(c)
	filter := orders.ListFilter{
		Status: c.Query("status"),
		UserID: c.Query("userId"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	var ok bool
	if filter.DateFrom, ok = dateParam(c, "dateFrom", false); !ok {
		return filter, false
	}
	if filter.DateTo, ok = dateParam(c, "dateTo", true); !ok {
		return filter, false
	}
	return filter, true
}

// dateParam accepts RFC 3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func dateParam(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	value := strings.TrimSpace(c.Query(name))
	if value == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}
