package processors

import (
	"context"
	"errors"
	"fmt"

	"eshop/internal/events"
	"eshop/internal/logger"
	"eshop/internal/services/mailer"
	"eshop/internal/worker/processors/export"
	"eshop/internal/worker/processors/validation"
)

// Notifier mails the admin about a visitor chat message.
type Notifier interface {
	SendNotification(ctx context.Context, sessionKey, content string) error
}

type EventProcessor struct {
	logger    *logger.Logger
	validator *validation.Validator
	exporter  *export.Exporter
	notifier  Notifier
}

func NewEventProcessor(validator *validation.Validator, exporter *export.Exporter, notifier Notifier, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		logger:    logger,
		validator: validator,
		exporter:  exporter,
		notifier:  notifier,
	}
}

func (ep *EventProcessor) Process(ctx context.Context, event events.Event) error {
	if err := ep.validator.Validate(event); err != nil {
		return err
	}

	ep.logger.Debug("Processing event %s for %s", event.Type, event.ID)

	switch event.Type {
	case events.ChatVisitorMessage:
		err := ep.notifier.SendNotification(ctx, event.String("sessionKey"), event.String("content"))
		if errors.Is(err, mailer.ErrNotConfigured) {
			ep.logger.Warn("Chat notification for %s skipped: %v", event.String("sessionKey"), err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to send chat notification: %w", err)
		}
	case events.InvoiceCreated:
		if err := ep.exporter.ExportInvoice(ctx, event.String("invoiceNumber")); err != nil {
			return fmt.Errorf("failed to export invoice: %w", err)
		}
	case events.OrderCreated:
		ep.logger.Info("Order %s placed by %s", event.String("orderId"), event.String("email"))
	case events.OrderStatusChanged:
		ep.logger.Info("Order %s is now %s", event.String("orderId"), event.String("status"))
	}

	return nil
}
