package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"eshop/internal/events"
	"eshop/internal/models"
	"eshop/internal/services/mailer"
)

const anonymousVisitor = "Návštevník"

// SessionTag marks operator facing texts so replies find their session.
func SessionTag(key string) string {
	return "[CS:" + key + "]"
}

// OperatorText is the text forwarded to Telegram and Messenger.
func OperatorText(key string, req VisitorMessage) string {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = anonymousVisitor
	}

	lines := []string{
		SessionTag(key) + " Nová správa z e-shop chatu",
		"Meno: " + name,
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		lines = append(lines, "Telefón: "+phone)
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		lines = append(lines, "E-mail: "+email)
	}
	lines = append(lines, "---", strings.TrimSpace(req.Message))
	return strings.Join(lines, "\n")
}

// SendEmail stores the visitor message and mails the admin right away.
func (s *Service) SendEmail(ctx context.Context, req VisitorMessage) (*SendResult, error) {
	result, err := s.storeVisitorMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.SendNotification(ctx, result.SessionKey, result.Message.Content)
	switch {
	case err == nil:
	case errors.Is(err, mailer.ErrNotConfigured):
		s.logger.Warn("Offline message for session %s stored without email", result.SessionKey)
	default:
		return result, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return result, nil
}

// SendMessenger forwards the visitor message to the configured Messenger
// recipient.
func (s *Service) SendMessenger(ctx context.Context, req VisitorMessage) (*SendResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.MessengerReady() || s.channels.Messenger == nil {
		return nil, fmt.Errorf("%w: messenger", ErrChannelNotConfigured)
	}

	result, err := s.storeVisitorMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	text := OperatorText(result.SessionKey, req)
	messageID, err := s.channels.Messenger.SendText(ctx, settings.MessengerPageToken, settings.MessengerRecipientID, text)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if messageID != "" {
		if err := s.setExternalID(ctx, result.Message, messageID); err != nil {
			return result, err
		}
	}
	return result, nil
}

// SendTelegram forwards the visitor message to the operator group or chat.
func (s *Service) SendTelegram(ctx context.Context, req VisitorMessage) (*SendResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.TelegramReady() || s.channels.Telegram == nil {
		return nil, fmt.Errorf("%w: telegram", ErrChannelNotConfigured)
	}

	result, err := s.storeVisitorMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	text := OperatorText(result.SessionKey, req)
	messageID, err := s.channels.Telegram.SendText(strings.TrimSpace(settings.TelegramBotToken), settings.TelegramTarget(), text)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	id := strconv.Itoa(messageID)
	result.Message.TelegramMessageID = &id
	err = s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("id = ?", result.Message.ID).
		Update("telegram_message_id", id).Error
	if err != nil {
		return result, fmt.Errorf("failed to store telegram message id: %w", err)
	}
	return result, nil
}

// SendNotification mails the admin about a visitor message. Nothing is sent
// when no admin email is configured.
func (s *Service) SendNotification(ctx context.Context, key, content string) error {
	if s.channels.Mailer == nil {
		return mailer.ErrNotConfigured
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	if settings.AdminEmail == "" {
		return nil
	}

	session, err := s.findSession(ctx, key)
	if err != nil {
		return err
	}
	return s.channels.Mailer.Send(notificationMessage(settings, session, content))
}

// notify hands the admin email to the worker when events are consumed,
// otherwise sends it inline. Failures only get logged.
func (s *Service) notify(ctx context.Context, session *models.ChatSession, content string) {
	if s.channels.Publisher.Enabled() {
		event := events.New(events.ChatVisitorMessage, session.SessionKey, map[string]interface{}{
			"sessionKey": session.SessionKey,
			"content":    content,
		})
		if err := s.channels.Publisher.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish chat notification: %v", err)
		}
		return
	}

	if err := s.SendNotification(ctx, session.SessionKey, content); err != nil && !errors.Is(err, mailer.ErrNotConfigured) {
		s.logger.Error("Failed to send chat notification: %v", err)
	}
}

func notificationMessage(settings Settings, session *models.ChatSession, content string) mailer.Message {
	name := anonymousVisitor
	if session.VisitorName != nil && *session.VisitorName != "" {
		name = *session.VisitorName
	}

	lines := []string{"Relácia: " + session.SessionKey, "Meno: " + name}
	replyTo := ""
	if session.VisitorEmail != nil && *session.VisitorEmail != "" {
		replyTo = *session.VisitorEmail
		lines = append(lines, "E-mail: "+replyTo)
	}
	if session.VisitorPhone != nil && *session.VisitorPhone != "" {
		lines = append(lines, "Telefón: "+*session.VisitorPhone)
	}
	lines = append(lines, "---", content)

	subject := strings.TrimSpace(settings.EmailSubjectPrefix + " Nová správa od " + name)
	return mailer.Message{
		To:      settings.AdminEmail,
		ReplyTo: replyTo,
		Subject: subject,
		Body:    strings.Join(lines, "\n"),
	}
}

func (s *Service) setExternalID(ctx context.Context, message *models.ChatMessage, id string) error {
	message.ExternalMessageID = &id
	err := s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("id = ?", message.ID).
		Update("external_message_id", id).Error
	if err != nil {
		return fmt.Errorf("failed to store external message id: %w", err)
	}
	return nil
}
