package validation

import (
	"errors"
	"fmt"

	"eshop/internal/events"
	"eshop/internal/logger"
)

var ErrInvalidEvent = errors.New("invalid event")

// requiredFields lists the data keys each event type must carry.
var requiredFields = map[string][]string{
	events.OrderCreated:       {"orderId", "email"},
	events.OrderStatusChanged: {"orderId", "status"},
	events.InvoiceCreated:     {"invoiceNumber"},
	events.ChatVisitorMessage: {"sessionKey", "content"},
}

type Validator struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Validator {
	return &Validator{
		logger: logger,
	}
}

// Validate checks that the event type is known and that its payload has
// the fields the handlers read.
func (v *Validator) Validate(event events.Event) error {
	fields, ok := requiredFields[event.Type]
	if !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, event.Type)
	}
	if event.ID == "" {
		return fmt.Errorf("%w: %s without id", ErrInvalidEvent, event.Type)
	}
	for _, field := range fields {
		if event.String(field) == "" {
			return fmt.Errorf("%w: %s without %s", ErrInvalidEvent, event.Type, field)
		}
	}

	v.logger.Debug("Validated event %s for %s", event.Type, event.ID)
	return nil
}
