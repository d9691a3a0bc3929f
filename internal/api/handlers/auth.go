package handlers

import (
	"errors"
	"net/http"

	"eshop/internal/api/middleware"
	"eshop/internal/logger"
	"eshop/internal/services/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth   *auth.Service
	logger *logger.Logger
}

func NewAuthHandler(auth *auth.Service, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var creds auth.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.AdminLogin(c.Request.Context(), creds)
	if err != nil {
		h.fail(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

type verifyTwoFactorRequest struct {
	ChallengeToken string `json:"challengeToken"`
	Code           string `json:"code"`
}

// VerifyTwoFactor exchanges the challenge token from AdminLogin and a TOTP
// code for a session token.
func (h *AuthHandler) VerifyTwoFactor(c *gin.Context) {
	var req verifyTwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.VerifyTwoFactor(c.Request.Context(), req.ChallengeToken, req.Code)
	if err != nil {
		h.fail(c, err, "Verification failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *AuthHandler) CustomerLogin(c *gin.Context) {
	var creds auth.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.CustomerLogin(c.Request.Context(), creds)
	if err != nil {
		h.fail(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input auth.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.Register(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err, "Registration failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.fail(c, err, "Logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"loggedOut": true}})
}

func (h *AuthHandler) AdminList(c *gin.Context) {
	admins, err := h.auth.AdminList(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch admins")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": admins})
}

func (h *AuthHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, auth.ErrInvalidCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid verification code"})
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
	default:
		h.logger.Error("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
