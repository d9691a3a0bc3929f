package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSession struct {
	ID            string        `json:"id" gorm:"type:varchar(36);primaryKey"`
	SessionKey    string        `json:"session_key" gorm:"uniqueIndex;not null"`
	VisitorName   *string       `json:"visitor_name"`
	VisitorEmail  *string       `json:"visitor_email"`
	VisitorPhone  *string       `json:"visitor_phone"`
	Status        ChatStatus    `json:"status" gorm:"not null;default:open;index"`
	LastMessageAt *time.Time    `json:"last_message_at" gorm:"index"`
	Messages      []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time     `json:"created_at"`
}

type ChatMessage struct {
	ID                string        `json:"id" gorm:"type:varchar(36);primaryKey"`
	SessionID         string        `json:"session_id" gorm:"type:varchar(36);index;not null"`
	Direction         ChatDirection `json:"direction" gorm:"not null"`
	Content           string        `json:"content" gorm:"type:text;not null"`
	TelegramMessageID *string       `json:"telegram_message_id,omitempty"`
	TelegramUpdateID  *string       `json:"telegram_update_id,omitempty"`
	ExternalMessageID *string       `json:"external_message_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at" gorm:"index"`
}

type ChatStatus string

const (
	ChatStatusOpen   ChatStatus = "open"
	ChatStatusClosed ChatStatus = "closed"
)

type ChatDirection string

const (
	ChatDirectionVisitor ChatDirection = "visitor"
	ChatDirectionAgent   ChatDirection = "agent"
)

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
