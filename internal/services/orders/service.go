// Package orders handles checkout, the order workflow and the backoffice
// order views.
package orders

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"eshop/internal/events"
	"eshop/internal/logger"
	"eshop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPaymentMethod = "unspecified"
	createdNote          = "Objednávka vytvorená"
	idAlphabet           = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order")
	ErrInvalidStatus = errors.New("invalid order status")
)

type Service struct {
	db        *gorm.DB
	publisher events.Publisher
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(db *gorm.DB, publisher events.Publisher, logger *logger.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		db:        db,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

type ItemInput struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CreateInput struct {
	CustomerName  string      `json:"customerName"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	CompanyID     string      `json:"companyId"`
	PaymentMethod string      `json:"paymentMethod"`
	Items         []ItemInput `json:"items"`
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalidOrder)
	}
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidOrder)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("%w: item name is required", ErrInvalidOrder)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity of %q must be positive", ErrInvalidOrder, item.Name)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: price of %q is negative", ErrInvalidOrder, item.Name)
		}
	}
	return nil
}

// NewExternalID returns an order number like ORD-202405-K3X9QZ.
func NewExternalID(now time.Time) (string, error) {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate order id: %w", err)
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("200601"), suffix), nil
}

// Create stores a checkout order. userID links it to a customer account
// and may be empty for guest checkouts.
func (s *Service) Create(ctx context.Context, in CreateInput, userID string) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	externalID, err := NewExternalID(now)
	if err != nil {
		return nil, err
	}

	paymentMethod := strings.TrimSpace(in.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	order := models.Order{
		ExternalID:    externalID,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:         optional(in.Phone),
		Address:       optional(in.Address),
		CompanyID:     optional(in.CompanyID),
		Status:        models.OrderStatusNew,
		PaymentMethod: paymentMethod,
		UserID:        optional(userID),
		Total:         decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, item := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: optional(item.ProductID),
			Name:      strings.TrimSpace(item.Name),
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
		order.Total = order.Total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	order.Total = order.Total.Round(2)

	note := createdNote
	order.History = []models.OrderHistory{{
		Status:    models.OrderStatusNew,
		Note:      &note,
		Timestamp: now,
	}}

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order %s created for %s", order.ExternalID, order.Email)
	s.publish(ctx, events.New(events.OrderCreated, order.ID, map[string]interface{}{
		"orderId": order.ExternalID,
		"email":   order.Email,
		"total":   order.Total.StringFixed(2),
	}))

	return &order, nil
}

type ListFilter struct {
	Status   string
	UserID   string
	DateFrom *time.Time
	DateTo   *time.Time
	Search   string
	Page     int
	Limit    int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

func (s *Service) filtered(ctx context.Context, f ListFilter) (*gorm.DB, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})

	if f.Status != "" {
		status, ok := ParseStatus(f.Status)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, f.Status)
		}
		query = query.Where("status = ?", status)
	}
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.DateFrom != nil {
		query = query.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		query = query.Where("created_at <= ?", *f.DateTo)
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(customer_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(external_id) LIKE ?", like, like, like)
	}
	return query, nil
}

func withDetails(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp desc")
		})
}

// List returns one page of orders, newest first, and the total count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Order, int64, error) {
	f.normalize()
	query, err := s.filtered(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err = withDetails(query).
		Order("created_at desc").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// ByUser returns every order of a customer account, newest first.
func (s *Service) ByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := withDetails(s.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	return orders, nil
}

// Get loads an order by id or external id.
func (s *Service) Get(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := withDetails(s.db.WithContext(ctx)).
		Where("id = ? OR external_id = ?", ref, ref).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// UpdateStatus moves an order to a new status and records it in the history.
func (s *Service) UpdateStatus(ctx context.Context, ref, value, note string) (*models.Order, error) {
	status, ok := ParseStatus(value)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, value)
	}

	order, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	previous := order.Status
	now := s.now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]interface{}{"status": status, "updated_at": now}).Error
		if err != nil {
			return err
		}
		return tx.Create(&models.OrderHistory{
			OrderID:   order.ID,
			Status:    status,
			Note:      optional(note),
			Timestamp: now,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order %s moved from %s to %s", order.ExternalID, previous, status)
	s.publish(ctx, events.New(events.OrderStatusChanged, order.ID, map[string]interface{}{
		"orderId":        order.ExternalID,
		"status":         string(status),
		"previousStatus": string(previous),
	}))

	return s.Get(ctx, order.ID)
}

type Stats struct {
	TotalOrders int64                        `json:"totalOrders"`
	Revenue     decimal.Decimal              `json:"revenue"`
	ByStatus    map[models.OrderStatus]int64 `json:"byStatus"`
}

// Stats summarizes all orders. Cancelled orders do not count as revenue.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Revenue:  decimal.Zero,
		ByStatus: make(map[models.OrderStatus]int64, len(models.OrderStatuses)),
	}
	for _, status := range models.OrderStatuses {
		stats.ByStatus[status] = 0
	}

	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
	}

	var totals []decimal.Decimal
	err = s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status <> ?", models.OrderStatusCancelled).
		Pluck("total", &totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	for _, total := range totals {
		stats.Revenue = stats.Revenue.Add(total)
	}
	stats.Revenue = stats.Revenue.Round(2)

	return stats, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish %s event: %v", event.Type, err)
	}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
