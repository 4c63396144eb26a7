// internal/domain/product/category_service.go
package product

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// GetCategories retrieves the active categories in display order
func (s *CategoryService) GetCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}
