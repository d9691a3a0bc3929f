package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is an issued invoice. Supplier fields are copied from the invoice
// template at issue time so later template edits do not rewrite history.
type Invoice struct {
	ID              string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	InvoiceNumber   string          `json:"invoice_number" gorm:"uniqueIndex;not null"`
	VariableSymbol  string          `json:"variable_symbol"`
	SupplierName    string          `json:"supplier_name"`
	SupplierAddress string          `json:"supplier_address"`
	SupplierICO     string          `json:"supplier_ico"`
	SupplierDIC     string          `json:"supplier_dic"`
	SupplierVatID   string          `json:"supplier_vat_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerICO     *string         `json:"customer_ico"`
	CustomerDIC     *string         `json:"customer_dic"`
	CustomerVatID   *string         `json:"customer_vat_id"`
	CustomerAddress *string         `json:"customer_address"`
	IssueDate       time.Time       `json:"issue_date" gorm:"index"`
	DueDate         time.Time       `json:"due_date"`
	SupplyDate      time.Time       `json:"supply_date"`
	BasePrice       decimal.Decimal `json:"base_price" gorm:"type:decimal(12,2)"`
	VatRate         decimal.Decimal `json:"vat_rate" gorm:"type:decimal(5,4)"`
	VatValue        decimal.Decimal `json:"vat_value" gorm:"type:decimal(12,2)"`
	TotalPrice      decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2)"`
	Currency        string          `json:"currency"`
	OrderID         *string         `json:"order_id" gorm:"type:varchar(36);index"`
	Order           *Order          `json:"order,omitempty"`
	TemplateVersion string          `json:"template_version"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
