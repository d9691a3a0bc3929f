package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            string                        `json:"id" gorm:"type:varchar(36);primaryKey"`
	Slug          string                        `json:"slug" gorm:"uniqueIndex;not null"`
	Name          string                        `json:"name" gorm:"not null"`
	Tagline       *string                       `json:"tagline"`
	Description   *string                       `json:"description" gorm:"type:text"`
	Price         decimal.Decimal               `json:"price" gorm:"type:decimal(12,2);not null"`
	Currency      string                        `json:"currency" gorm:"default:EUR"`
	Discount      decimal.Decimal               `json:"discount" gorm:"type:decimal(12,2)"`
	Stock         int                           `json:"stock"`
	Badge         *string                       `json:"badge"`
	BillingPeriod *string                       `json:"billing_period"`
	Promotion     *string                       `json:"promotion"`
	Image         *string                       `json:"image"`
	Gallery       []string                      `json:"gallery" gorm:"serializer:json;type:text"`
	Specs         []string                      `json:"specs" gorm:"serializer:json;type:text"`
	Active        bool                          `json:"active"`
	Translations  map[string]ProductTranslation `json:"translations,omitempty" gorm:"serializer:json;type:text"`
	CategoryID    *string                       `json:"category_id" gorm:"type:varchar(36);index"`
	SubCategoryID *string                       `json:"sub_category_id" gorm:"type:varchar(36);index"`
	Category      *Category                     `json:"category,omitempty"`
	SubCategory   *SubCategory                  `json:"sub_category,omitempty"`
	CreatedAt     time.Time                     `json:"created_at"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

// ProductTranslation overrides the catalog texts for one language.
type ProductTranslation struct {
	Name        string   `json:"name,omitempty"`
	Tagline     string   `json:"tagline,omitempty"`
	Description string   `json:"description,omitempty"`
	Promotion   string   `json:"promotion,omitempty"`
	Badge       string   `json:"badge,omitempty"`
	Specs       []string `json:"specs,omitempty"`
}

type Category struct {
	ID            string        `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name          string        `json:"name" gorm:"uniqueIndex;not null"`
	Subcategories []SubCategory `json:"subcategories" gorm:"foreignKey:CategoryID"`
	CreatedAt     time.Time     `json:"created_at"`
}

type SubCategory struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name       string    `json:"name" gorm:"not null"`
	CategoryID string    `json:"category_id" gorm:"type:varchar(36);index;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (s *SubCategory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
