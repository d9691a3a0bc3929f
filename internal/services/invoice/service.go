// Package invoice issues invoices for orders and renders them as ISDOC.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eshop/internal/configstore"
	"eshop/internal/database"
	"eshop/internal/events"
	"eshop/internal/logger"
	"eshop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	dateLayout        = "2006-01-02"
	maxNumberAttempts = 3
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvalidTemplate = errors.New("invalid invoice template")
)

type Service struct {
	db        *gorm.DB
	store     *configstore.Store
	publisher events.Publisher
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(db *gorm.DB, store *configstore.Store, publisher events.Publisher, logger *logger.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		db:        db,
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CalculateVat returns the VAT and the gross total for a net amount, both
// rounded to cents.
func CalculateVat(base, rate decimal.Decimal) (vat, total decimal.Decimal) {
	vat = base.Mul(rate).Round(2)
	total = base.Add(vat).Round(2)
	return vat, total
}

// FormatNumber renders the invoice number of the given yearly sequence.
func FormatNumber(year, sequence int) string {
	return fmt.Sprintf("FA-%d-%05d", year, sequence)
}

// VariableSymbol is the payment reference: the first ten digits of the
// order number, or the digits of the invoice number when it has none.
func VariableSymbol(orderExternalID, invoiceNumber string) string {
	if digits := onlyDigits(orderExternalID); digits != "" {
		if len(digits) > 10 {
			digits = digits[:10]
		}
		return digits
	}
	return onlyDigits(invoiceNumber)
}

// Record is the list view of an invoice.
type Record struct {
	ID             string          `json:"id"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	VariableSymbol string          `json:"variableSymbol"`
	Customer       string          `json:"customer"`
	IssueDate      string          `json:"issueDate"`
	DueDate        string          `json:"dueDate"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	OrderID        string          `json:"orderId,omitempty"`
}

func (s *Service) List(ctx context.Context) ([]Record, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Order").
		Order("issue_date desc").
		Order("invoice_number desc").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	records := make([]Record, 0, len(invoices))
	for _, inv := range invoices {
		record := Record{
			ID:             inv.ID,
			InvoiceNumber:  inv.InvoiceNumber,
			VariableSymbol: inv.VariableSymbol,
			Customer:       inv.CustomerName,
			IssueDate:      inv.IssueDate.Format(dateLayout),
			DueDate:        inv.DueDate.Format(dateLayout),
			Total:          inv.TotalPrice,
			Currency:       inv.Currency,
		}
		if inv.Order != nil {
			record.OrderID = inv.Order.ExternalID
		}
		records = append(records, record)
	}
	return records, nil
}

// Get loads an invoice with its order and order items.
func (s *Service) Get(ctx context.Context, number string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Order.Items").
		First(&inv, "invoice_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return &inv, nil
}

// Generate issues an invoice for the order identified by id or external id.
func (s *Service) Generate(ctx context.Context, orderRef, templateVersion string) (*models.Invoice, Template, error) {
	template, err := s.Template(ctx)
	if err != nil {
		return nil, template, err
	}
	if templateVersion == "" {
		templateVersion = "default"
	}

	var order models.Order
	err = s.db.WithContext(ctx).
		Where("id = ? OR external_id = ?", orderRef, orderRef).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, template, ErrOrderNotFound
	}
	if err != nil {
		return nil, template, fmt.Errorf("failed to load order: %w", err)
	}

	now := s.now()
	issueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rate := decimal.NewFromFloat(template.Defaults.VatRate)
	vat, total := CalculateVat(order.Total, rate)

	inv := models.Invoice{
		SupplierName:    template.Supplier.Name,
		SupplierAddress: template.Supplier.Address,
		SupplierICO:     template.Supplier.ICO,
		SupplierDIC:     template.Supplier.DIC,
		SupplierVatID:   template.Supplier.VatID,
		CustomerName:    order.CustomerName,
		CustomerICO:     order.CompanyID,
		CustomerDIC:     order.CompanyID,
		CustomerAddress: order.Address,
		IssueDate:       issueDate,
		DueDate:         issueDate.AddDate(0, 0, template.Defaults.DueDays),
		SupplyDate:      issueDate.AddDate(0, 0, template.Defaults.SupplyDaysOffset),
		BasePrice:       order.Total,
		VatRate:         rate,
		VatValue:        vat,
		TotalPrice:      total,
		Currency:        template.Defaults.Currency,
		OrderID:         &order.ID,
		TemplateVersion: templateVersion,
	}
	if order.CompanyID != nil && strings.HasPrefix(*order.CompanyID, "CZ") {
		inv.CustomerVatID = order.CompanyID
	}

	// A concurrent Generate may take the same number first; the unique
	// index rejects the second insert and the number is drawn again.
	for attempt := 1; ; attempt++ {
		inv.ID = ""
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := nextNumber(tx, issueDate.Year())
			if err != nil {
				return err
			}
			inv.InvoiceNumber = number
			inv.VariableSymbol = VariableSymbol(order.ExternalID, number)

			if err := tx.Create(&inv).Error; err != nil {
				return err
			}
			return tx.Model(&models.Order{}).
				Where("id = ?", order.ID).
				Update("invoice_number", number).Error
		})
		if err == nil || attempt >= maxNumberAttempts || !database.IsUniqueViolation(err) {
			break
		}
		s.logger.Warn("Invoice number %s already taken, retrying", inv.InvoiceNumber)
	}
	if err != nil {
		return nil, template, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info("Invoice %s issued for order %s", inv.InvoiceNumber, order.ExternalID)

	event := events.New(events.InvoiceCreated, inv.ID, map[string]interface{}{
		"invoiceNumber": inv.InvoiceNumber,
		"orderId":       order.ExternalID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish invoice event: %v", err)
	}

	return &inv, template, nil
}

// nextNumber continues the sequence of the given year. The sequence is
// compared numerically so numbers past 99999 keep counting up.
func nextNumber(tx *gorm.DB, year int) (string, error) {
	prefix := fmt.Sprintf("FA-%d-", year)

	var last int
	err := tx.Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Select(fmt.Sprintf("COALESCE(MAX(CAST(SUBSTR(invoice_number, %d) AS INTEGER)), 0)", len(prefix)+1)).
		Scan(&last).Error
	if err != nil {
		return "", fmt.Errorf("failed to read invoice sequence: %w", err)
	}
	return FormatNumber(year, last+1), nil
}

func onlyDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
