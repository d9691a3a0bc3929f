package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID            string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	ExternalID    string          `json:"external_id" gorm:"uniqueIndex;not null"`
	CustomerName  string          `json:"customer_name" gorm:"not null"`
	Email         string          `json:"email" gorm:"not null"`
	Phone         *string         `json:"phone"`
	Address       *string         `json:"address"`
	CompanyID     *string         `json:"company_id"`
	Status        OrderStatus     `json:"status" gorm:"not null;index"`
	Total         decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `json:"payment_method"`
	InvoiceNumber *string         `json:"invoice_number"`
	AssignedTo    *string         `json:"assigned_to"`
	UserID        *string         `json:"user_id" gorm:"type:varchar(36);index"`
	Items         []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History       []OrderHistory  `json:"history" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID        string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	OrderID   string          `json:"order_id" gorm:"type:varchar(36);index;not null"`
	ProductID *string         `json:"product_id" gorm:"type:varchar(36)"`
	Name      string          `json:"name" gorm:"not null"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
}

type OrderHistory struct {
	ID        string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	OrderID   string      `json:"order_id" gorm:"type:varchar(36);index;not null"`
	Status    OrderStatus `json:"status" gorm:"not null"`
	Note      *string     `json:"note"`
	Timestamp time.Time   `json:"timestamp"`
}

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in workflow order.
var OrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

func (h *OrderHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now()
	}
	return nil
}
