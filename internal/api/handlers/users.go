package handlers

import (
	"errors"
	"net/http"

	"eshop/internal/logger"
	"eshop/internal/services/users"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users  *users.Service
	logger *logger.Logger
}

func NewUserHandler(users *users.Service, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

func (h *UserHandler) List(c *gin.Context) {
	list, err := h.users.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		h.fail(c, err, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (h *UserHandler) Create(c *gin.Context) {
	var input users.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Create(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err, "Failed to create user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": user})
}

func (h *UserHandler) Update(c *gin.Context) {
	var input users.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.fail(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

// TwoFactorSetup returns a fresh secret to scan. It is stored only once
// confirmed through EnableTwoFactor.
func (h *UserHandler) TwoFactorSetup(c *gin.Context) {
	setup, err := h.users.GenerateTwoFactor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to generate two factor secret")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": setup})
}

type enableTwoFactorRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

func (h *UserHandler) EnableTwoFactor(c *gin.Context) {
	var req enableTwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.EnableTwoFactor(c.Request.Context(), c.Param("id"), req.Secret, req.Code); err != nil {
		h.fail(c, err, "Failed to enable two factor")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"twoFactorEnabled": true}})
}

func (h *UserHandler) DisableTwoFactor(c *gin.Context) {
	if err := h.users.DisableTwoFactor(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to disable two factor")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"twoFactorEnabled": false}})
}

func (h *UserHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, users.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, users.ErrInvalidUser), errors.Is(err, users.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
