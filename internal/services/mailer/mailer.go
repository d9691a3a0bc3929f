// Package mailer sends plain text notification emails over SMTP.
package mailer

import (
	"errors"
	"fmt"

	"eshop/internal/config"
	"eshop/internal/logger"

	"gopkg.in/mail.v2"
)

var ErrNotConfigured = errors.New("smtp is not configured")

type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

type Sender interface {
	Send(msg Message) error
}

type Mailer struct {
	cfg    config.SMTPConfig
	logger *logger.Logger
	dialer *mail.Dialer
}

func New(cfg config.SMTPConfig, logger *logger.Logger) *Mailer {
	m := &Mailer{cfg: cfg, logger: logger}
	if cfg.Host != "" {
		m.dialer = mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

func (m *Mailer) Configured() bool {
	return m.dialer != nil
}

func (m *Mailer) Send(msg Message) error {
	if msg.To == "" {
		return errors.New("recipient is required")
	}
	if !m.Configured() {
		m.logger.Warn("SMTP not configured, dropping email to %s: %s", msg.To, msg.Subject)
		return ErrNotConfigured
	}

	message := Build(m.cfg.From, msg)
	if err := m.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent to %s: %s", msg.To, msg.Subject)
	return nil
}

// Build assembles the MIME message for msg.
func Build(from string, msg Message) *mail.Message {
	message := mail.NewMessage()
	message.SetHeader("From", from)
	message.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		message.SetHeader("Reply-To", msg.ReplyTo)
	}
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/plain", msg.Body)
	return message
}
