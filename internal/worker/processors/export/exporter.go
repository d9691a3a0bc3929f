package export

import (
	"context"
	"errors"

	"eshop/internal/logger"
	"eshop/internal/services/flexibee"
)

// InvoiceSender pushes an issued invoice to the accounting system.
type InvoiceSender interface {
	SendInvoice(ctx context.Context, number string) (map[string]interface{}, error)
}

type Exporter struct {
	sender  InvoiceSender
	enabled bool
	logger  *logger.Logger
}

func New(sender InvoiceSender, enabled bool, logger *logger.Logger) *Exporter {
	return &Exporter{
		sender:  sender,
		enabled: enabled,
		logger:  logger,
	}
}

// ExportInvoice sends the invoice to FlexiBee when auto export is on. A
// missing FlexiBee configuration is logged and skipped.
func (e *Exporter) ExportInvoice(ctx context.Context, number string) error {
	if !e.enabled {
		e.logger.Debug("Auto export disabled, skipping invoice %s", number)
		return nil
	}

	_, err := e.sender.SendInvoice(ctx, number)
	if errors.Is(err, flexibee.ErrNotConfigured) {
		e.logger.Warn("Invoice %s not exported: %v", number, err)
		return nil
	}
	if err != nil {
		return err
	}

	e.logger.Info("Invoice %s exported to FlexiBee", number)
	return nil
}
