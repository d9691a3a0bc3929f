package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"eshop/internal/logger"
	"eshop/internal/services/products"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	products *products.Service
	logger   *logger.Logger
}

func NewProductHandler(products *products.Service, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

func (h *ProductHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	filter := products.ListFilter{
		Category:      c.Query("category"),
		Query:         c.Query("q"),
		CategoryID:    c.Query("categoryId"),
		SubCategoryID: c.Query("subCategoryId"),
		Page:          page,
		Limit:         limit,
	}
	filter.InStock, _ = strconv.ParseBool(c.Query("inStock"))

	var ok bool
	if filter.MinPrice, ok = priceParam(c, "minPrice"); !ok {
		return
	}
	if filter.MaxPrice, ok = priceParam(c, "maxPrice"); !ok {
		return
	}

	items, total, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	respondPage(c, items, page, limit, total)
}

func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (h *ProductHandler) Create(c *gin.Context) {
	var input products.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.products.Create(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": product})
}

func (h *ProductHandler) Update(c *gin.Context) {
	var input products.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.products.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.fail(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete product")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.products.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}

type categoryRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
}

// CreateCategory creates a category, or a subcategory when categoryId is
// given.
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.products.CreateCategory(c.Request.Context(), req.Name, req.CategoryID); err != nil {
		h.fail(c, err, "Failed to create category")
		return
	}
	h.Categories(c)
}

func (h *ProductHandler) DeleteCategory(c *gin.Context) {
	if err := h.products.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete category")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, products.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, products.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
	case errors.Is(err, products.ErrSlugTaken), errors.Is(err, products.ErrCategoryExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, products.ErrInvalidProduct), errors.Is(err, products.ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func priceParam(c *gin.Context, name string) (*decimal.Decimal, bool) {
	value := strings.TrimSpace(c.Query(name))
	if value == "" {
		return nil, true
	}
	price, err := decimal.NewFromString(value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return nil, false
	}
	return &price, true
}
