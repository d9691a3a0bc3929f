package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"eshop/internal/logger"
	"eshop/internal/models"
	"eshop/internal/services/chat"
	"eshop/internal/services/telegram"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chat   *chat.Service
	poller *telegram.Poller
	logger *logger.Logger
}

func NewChatHandler(chat *chat.Service, poller *telegram.Poller, logger *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		poller: poller,
		logger: logger,
	}
}

// PublicSettings is the storefront view of the chat settings.
func (h *ChatHandler) PublicSettings(c *gin.Context) {
	settings, err := h.chat.Settings(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to read chat settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings.Public(time.Now())})
}

func (h *ChatHandler) Settings(c *gin.Context) {
	settings, err := h.chat.Settings(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to read chat settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

func (h *ChatHandler) SaveSettings(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	settings, err := h.chat.SaveSettings(c.Request.Context(), body)
	if err != nil {
		h.fail(c, err, "Failed to save chat settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

func (h *ChatHandler) PostMessage(c *gin.Context) {
	h.visitorMessage(c, h.chat.AddVisitorMessage)
}

func (h *ChatHandler) SendEmail(c *gin.Context) {
	h.visitorMessage(c, h.chat.SendEmail)
}

func (h *ChatHandler) SendMessenger(c *gin.Context) {
	h.visitorMessage(c, h.chat.SendMessenger)
}

func (h *ChatHandler) SendTelegram(c *gin.Context) {
	h.visitorMessage(c, h.chat.SendTelegram)
}

func (h *ChatHandler) visitorMessage(c *gin.Context, send func(ctx context.Context, req chat.VisitorMessage) (*chat.SendResult, error)) {
	var req chat.VisitorMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := send(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "Failed to send chat message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (h *ChatHandler) Messages(c *gin.Context) {
	messages, err := h.chat.Messages(c.Request.Context(), c.Param("sessionKey"))
	if err != nil {
		h.fail(c, err, "Failed to fetch chat messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": messages})
}

func (h *ChatHandler) UpdateProfile(c *gin.Context) {
	var profile chat.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.chat.UpdateProfile(c.Request.Context(), c.Param("sessionKey"), profile)
	if err != nil {
		h.fail(c, err, "Failed to update chat profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": session})
}

func (h *ChatHandler) Sessions(c *gin.Context) {
	status := models.ChatStatus(strings.ToLower(c.Query("status")))
	if status != "" && status != models.ChatStatusOpen && status != models.ChatStatusClosed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	sessions, err := h.chat.Sessions(c.Request.Context(), status)
	if err != nil {
		h.fail(c, err, "Failed to fetch chat sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sessions})
}

type replyRequest struct {
	SessionKey string `json:"sessionKey"`
	Message    string `json:"message"`
}

func (h *ChatHandler) Reply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.SessionKey) == "" || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionKey and message are required"})
		return
	}

	message, err := h.chat.AddAgentMessage(c.Request.Context(), req.SessionKey, req.Message, chat.AgentMeta{})
	if err != nil {
		h.fail(c, err, "Failed to send reply")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": message})
}

func (h *ChatHandler) CloseSession(c *gin.Context) {
	if err := h.chat.CloseSession(c.Request.Context(), c.Param("sessionKey")); err != nil {
		h.fail(c, err, "Failed to close chat session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"closed": true}})
}

// PollTelegram pulls operator replies from Telegram once.
func (h *ChatHandler) PollTelegram(c *gin.Context) {
	result, err := h.poller.Poll(c.Request.Context())
	if err != nil {
		h.logger.Error("Telegram poll failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Telegram poll failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *ChatHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrChannelNotConfigured), errors.Is(err, chat.ErrInvalidSettings):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrDeliveryFailed):
		h.logger.Warn("%s: %v", message, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
