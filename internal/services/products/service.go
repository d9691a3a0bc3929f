// Package products manages the catalog: products, categories and
// subcategories.
package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eshop/internal/logger"
	"eshop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultCurrency = "EUR"

var (
	ErrNotFound         = errors.New("product not found")
	ErrInvalidProduct   = errors.New("invalid product")
	ErrSlugTaken        = errors.New("product slug already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrCategoryExists   = errors.New("category already exists")
)

type Service struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewService(db *gorm.DB, logger *logger.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Input is the create and update payload. Nil fields are left untouched on
// update.
type Input struct {
	Slug          *string                              `json:"slug"`
	Name          *string                              `json:"name"`
	Tagline       *string                              `json:"tagline"`
	Description   *string                              `json:"description"`
	Price         *decimal.Decimal                     `json:"price"`
	Currency      *string                              `json:"currency"`
	Discount      *decimal.Decimal                     `json:"discount"`
	Stock         *int                                 `json:"stock"`
	Badge         *string                              `json:"badge"`
	BillingPeriod *string                              `json:"billingPeriod"`
	Promotion     *string                              `json:"promotion"`
	Image         *string                              `json:"image"`
	Gallery       []string                             `json:"gallery"`
	Specs         []string                             `json:"specs"`
	Active        *bool                                `json:"active"`
	Translations  map[string]models.ProductTranslation `json:"translations"`
	CategoryID    *string                              `json:"categoryId"`
	SubCategoryID *string                              `json:"subCategoryId"`
}

type ListFilter struct {
	Category      string
	Query         string
	CategoryID    string
	SubCategoryID string
	InStock       bool
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Page          int
	Limit         int
}

// List returns one page of products, most recently updated first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Product, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Product{})
	if f.Category != "" {
		query = query.Where("category_id IN (?)",
			s.db.WithContext(ctx).Model(&models.Category{}).Select("id").Where("name = ?", f.Category))
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		like := "%" + q + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tagline) LIKE ?", like, like, like)
	}
	if f.CategoryID != "" {
		query = query.Where("category_id = ?", f.CategoryID)
	}
	if f.SubCategoryID != "" {
		query = query.Where("sub_category_id = ?", f.SubCategoryID)
	}
	if f.InStock {
		query = query.Where("stock > 0")
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", f.MaxPrice.InexactFloat64())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	err := query.
		Preload("Category").
		Preload("SubCategory").
		Order("updated_at desc").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Get loads a product by id or slug.
func (s *Service) Get(ctx context.Context, ref string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("SubCategory").
		Where("id = ? OR slug = ?", ref, ref).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Product, error) {
	if blank(in.Slug) || blank(in.Name) || in.Price == nil {
		return nil, fmt.Errorf("%w: slug, name and price are required", ErrInvalidProduct)
	}
	if blank(in.CategoryID) {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidProduct)
	}

	product := models.Product{
		Currency: defaultCurrency,
		Active:   true,
		Gallery:  []string{},
		Specs:    []string{},
	}
	if err := s.apply(ctx, &product, in); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, product.Slug, ""); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.logger.Info("Product %s created", product.Slug)
	return s.Get(ctx, product.ID)
}

func (s *Service) Update(ctx context.Context, ref string, in Input) (*models.Product, error) {
	product, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if (in.Slug != nil && blank(in.Slug)) || (in.Name != nil && blank(in.Name)) {
		return nil, fmt.Errorf("%w: slug and name cannot be empty", ErrInvalidProduct)
	}
	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, product.Slug, product.ID); err != nil {
		return nil, err
	}

	product.Category = nil
	product.SubCategory = nil
	if err := s.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.Get(ctx, product.ID)
}

func (s *Service) Delete(ctx context.Context, ref string) error {
	result := s.db.WithContext(ctx).Where("id = ? OR slug = ?", ref, ref).Delete(&models.Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// apply copies the set fields of in onto product and checks the category
// references.
func (s *Service) apply(ctx context.Context, product *models.Product, in Input) error {
	if in.Slug != nil {
		product.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Tagline != nil {
		product.Tagline = optional(*in.Tagline)
	}
	if in.Description != nil {
		product.Description = optional(*in.Description)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return fmt.Errorf("%w: price is negative", ErrInvalidProduct)
		}
		product.Price = *in.Price
	}
	if in.Currency != nil && strings.TrimSpace(*in.Currency) != "" {
		product.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.Discount != nil {
		product.Discount = *in.Discount
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.Badge != nil {
		product.Badge = optional(*in.Badge)
	}
	if in.BillingPeriod != nil {
		product.BillingPeriod = optional(*in.BillingPeriod)
	}
	if in.Promotion != nil {
		product.Promotion = optional(*in.Promotion)
	}
	if in.Image != nil {
		product.Image = optional(*in.Image)
	}
	if in.Gallery != nil {
		product.Gallery = in.Gallery
	}
	if in.Specs != nil {
		product.Specs = in.Specs
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	if in.Translations != nil {
		product.Translations = in.Translations
	}
	if in.CategoryID != nil {
		product.CategoryID = optional(*in.CategoryID)
	}
	if in.SubCategoryID != nil {
		product.SubCategoryID = optional(*in.SubCategoryID)
	}

	if product.CategoryID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", *product.CategoryID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check category: %w", err)
		}
		if count == 0 {
			return ErrCategoryNotFound
		}
	}
	if product.SubCategoryID != nil {
		var sub models.SubCategory
		err := s.db.WithContext(ctx).First(&sub, "id = ?", *product.SubCategoryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check subcategory: %w", err)
		}
		if product.CategoryID == nil || sub.CategoryID != *product.CategoryID {
			return fmt.Errorf("%w: subcategory belongs to another category", ErrInvalidProduct)
		}
	}
	return nil
}

func (s *Service) ensureSlugFree(ctx context.Context, slug, exceptID string) error {
	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if count > 0 {
		return ErrSlugTaken
	}
	return nil
}

func blank(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == ""
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
