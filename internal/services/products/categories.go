package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eshop/internal/models"

	"gorm.io/gorm"
)

// Categories lists categories with their subcategories, both by name.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("name asc")
		}).
		Order("name asc").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory adds a category, or a subcategory of parentID when it is set.
func (s *Service) CreateCategory(ctx context.Context, name, parentID string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}

	db := s.db.WithContext(ctx)
	if parentID = strings.TrimSpace(parentID); parentID != "" {
		var parent models.Category
		err := db.First(&parent, "id = ?", parentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load category: %w", err)
		}

		var count int64
		db.Model(&models.SubCategory{}).Where("category_id = ? AND name = ?", parentID, name).Count(&count)
		if count > 0 {
			return ErrCategoryExists
		}
		if err := db.Create(&models.SubCategory{Name: name, CategoryID: parentID}).Error; err != nil {
			return fmt.Errorf("failed to create subcategory: %w", err)
		}
		return nil
	}

	var count int64
	db.Model(&models.Category{}).Where("name = ?", name).Count(&count)
	if count > 0 {
		return ErrCategoryExists
	}
	if err := db.Create(&models.Category{Name: name}).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category and its subcategories. Products keep
// existing without a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Product{}).
			Where("category_id = ?", id).
			Updates(map[string]interface{}{"category_id": nil, "sub_category_id": nil}).Error
		if err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.SubCategory{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
	if errors.Is(err, ErrCategoryNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}
