package validation

import (
	"testing"

	"eshop/internal/events"
	"eshop/internal/logger"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	v := New(logger.NewNop())

	tests := []struct {
		name  string
		event events.Event
		valid bool
	}{
		{"order created", events.New(events.OrderCreated, "o1", map[string]interface{}{"orderId": "ORD-1", "email": "a@b.sk"}), true},
		{"order created without email", events.New(events.OrderCreated, "o1", map[string]interface{}{"orderId": "ORD-1"}), false},
		{"status changed", events.New(events.OrderStatusChanged, "o1", map[string]interface{}{"orderId": "ORD-1", "status": "new"}), true},
		{"invoice without id", events.New(events.InvoiceCreated, "", map[string]interface{}{"invoiceNumber": "FA-2024-00001"}), false},
		{"non string field", events.New(events.InvoiceCreated, "i1", map[string]interface{}{"invoiceNumber": 12}), false},
		{"unknown type", events.New("order.deleted", "o1", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.event)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidEvent)
			}
		})
	}
}
