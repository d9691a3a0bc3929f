// Package chat implements the storefront live chat: sessions, messages,
// settings and delivery of visitor messages to the operators.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eshop/internal/configstore"
	"eshop/internal/events"
	"eshop/internal/logger"
	"eshop/internal/models"
	"eshop/internal/services/mailer"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound      = errors.New("chat session not found")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrChannelNotConfigured = errors.New("chat channel is not configured")
	ErrDeliveryFailed       = errors.New("chat message delivery failed")
	ErrInvalidSettings      = errors.New("invalid chat settings")
)

// TelegramSender posts a text to a Telegram chat and returns the message id.
type TelegramSender interface {
	SendText(token, chatID, text string) (int, error)
}

// MessengerSender posts a text through the Messenger Send API and returns
// the message id.
type MessengerSender interface {
	SendText(ctx context.Context, pageToken, recipientID, text string) (string, error)
}

// Channels are the outbound integrations used by the service. Nil members
// disable the matching channel.
type Channels struct {
	Mailer    mailer.Sender
	Publisher events.Publisher
	Telegram  TelegramSender
	Messenger MessengerSender
}

type Service struct {
	db       *gorm.DB
	store    *configstore.Store
	logger   *logger.Logger
	channels Channels
	now      func() time.Time
}

func NewService(db *gorm.DB, store *configstore.Store, logger *logger.Logger, channels Channels) *Service {
	if channels.Publisher == nil {
		channels.Publisher = events.NopPublisher{}
	}
	return &Service{
		db:       db,
		store:    store,
		logger:   logger,
		channels: channels,
		now:      time.Now,
	}
}

type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (p Profile) empty() bool {
	return p.Name == "" && p.Email == "" && p.Phone == ""
}

type VisitorMessage struct {
	SessionKey string `json:"sessionKey"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Message    string `json:"message"`
}

func (m VisitorMessage) profile() Profile {
	return Profile{
		Name:  strings.TrimSpace(m.Name),
		Email: strings.TrimSpace(m.Email),
		Phone: strings.TrimSpace(m.Phone),
	}
}

type SendResult struct {
	SessionKey string              `json:"sessionKey"`
	Message    *models.ChatMessage `json:"message"`
	AutoReply  *models.ChatMessage `json:"autoReply,omitempty"`
	Session    *models.ChatSession `json:"-"`
}

// AgentMeta carries the Telegram identifiers of an operator reply.
type AgentMeta struct {
	TelegramMessageID string
	TelegramUpdateID  string
}

// GetOrCreateSession loads the session for key, creating it when missing.
// A blank key starts a new session.
func (s *Service) GetOrCreateSession(ctx context.Context, key string, profile Profile) (*models.ChatSession, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = uuid.NewString()
	}

	var session models.ChatSession
	err := s.db.WithContext(ctx).First(&session, "session_key = ?", key).Error
	if err == nil {
		if !profile.empty() {
			if err := s.applyProfile(ctx, &session, profile); err != nil {
				return nil, err
			}
		}
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}

	session = models.ChatSession{
		SessionKey:   key,
		VisitorName:  optional(profile.Name),
		VisitorEmail: optional(profile.Email),
		VisitorPhone: optional(profile.Phone),
		Status:       models.ChatStatusOpen,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	return &session, nil
}

// UpdateProfile overwrites the visitor fields that are not blank.
func (s *Service) UpdateProfile(ctx context.Context, key string, profile Profile) (*models.ChatSession, error) {
	session, err := s.findSession(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.applyProfile(ctx, session, profile); err != nil {
		return nil, err
	}
	return session, nil
}

// Messages returns the session messages oldest first. Unknown sessions have
// no messages.
func (s *Service) Messages(ctx context.Context, key string) ([]models.ChatMessage, error) {
	messages := []models.ChatMessage{}
	session, err := s.findSession(ctx, key)
	if errors.Is(err, ErrSessionNotFound) {
		return messages, nil
	}
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Where("session_id = ?", session.ID).
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load chat messages: %w", err)
	}
	return messages, nil
}

// Sessions lists sessions by most recent activity, optionally by status.
func (s *Service) Sessions(ctx context.Context, status models.ChatStatus) ([]models.ChatSession, error) {
	sessions := []models.ChatSession{}
	query := s.db.WithContext(ctx).Model(&models.ChatSession{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("last_message_at desc").Order("created_at desc").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	return sessions, nil
}

// AddVisitorMessage stores a visitor message, notifies the admin and adds
// the auto reply when nobody is online.
func (s *Service) AddVisitorMessage(ctx context.Context, req VisitorMessage) (*SendResult, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.storeVisitorMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	if settings.AdminEmail != "" {
		s.notify(ctx, result.Session, result.Message.Content)
	}

	if settings.AutoReplyEnabled && strings.TrimSpace(settings.AutoReplyMessage) != "" && !IsOnline(settings, s.now()) {
		reply, err := s.addMessage(ctx, result.Session, models.ChatDirectionAgent, settings.AutoReplyMessage, AgentMeta{})
		if err != nil {
			return nil, err
		}
		result.AutoReply = reply
	}

	return result, nil
}

// AddAgentMessage stores an operator reply.
func (s *Service) AddAgentMessage(ctx context.Context, key, content string, meta AgentMeta) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	session, err := s.findSession(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.addMessage(ctx, session, models.ChatDirectionAgent, content, meta)
}

// HasTelegramUpdate reports whether a message was already stored for the
// given Telegram update.
func (s *Service) HasTelegramUpdate(ctx context.Context, updateID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("telegram_update_id = ?", updateID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up telegram update: %w", err)
	}
	return count > 0, nil
}

func (s *Service) CloseSession(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("session_key = ?", key).
		Update("status", models.ChatStatusClosed)
	if result.Error != nil {
		return fmt.Errorf("failed to close chat session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *Service) storeVisitorMessage(ctx context.Context, req VisitorMessage) (*SendResult, error) {
	content := strings.TrimSpace(req.Message)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	session, err := s.GetOrCreateSession(ctx, req.SessionKey, req.profile())
	if err != nil {
		return nil, err
	}

	message, err := s.addMessage(ctx, session, models.ChatDirectionVisitor, content, AgentMeta{})
	if err != nil {
		return nil, err
	}

	return &SendResult{SessionKey: session.SessionKey, Message: message, Session: session}, nil
}

func (s *Service) addMessage(ctx context.Context, session *models.ChatSession, direction models.ChatDirection, content string, meta AgentMeta) (*models.ChatMessage, error) {
	message := models.ChatMessage{
		SessionID:         session.ID,
		Direction:         direction,
		Content:           content,
		TelegramMessageID: optional(meta.TelegramMessageID),
		TelegramUpdateID:  optional(meta.TelegramUpdateID),
		CreatedAt:         s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatSession{}).
			Where("id = ?", session.ID).
			Update("last_message_at", message.CreatedAt).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store chat message: %w", err)
	}

	session.LastMessageAt = &message.CreatedAt
	return &message, nil
}

func (s *Service) findSession(ctx context.Context, key string) (*models.ChatSession, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrSessionNotFound
	}

	var session models.ChatSession
	err := s.db.WithContext(ctx).First(&session, "session_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}
	return &session, nil
}

func (s *Service) applyProfile(ctx context.Context, session *models.ChatSession, profile Profile) error {
	updates := map[string]interface{}{}
	if profile.Name != "" {
		updates["visitor_name"] = profile.Name
		session.VisitorName = &profile.Name
	}
	if profile.Email != "" {
		updates["visitor_email"] = profile.Email
		session.VisitorEmail = &profile.Email
	}
	if profile.Phone != "" {
		updates["visitor_phone"] = profile.Phone
		session.VisitorPhone = &profile.Phone
	}
	if len(updates) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Model(&models.ChatSession{}).Where("id = ?", session.ID).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update chat profile: %w", err)
	}
	return nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
