// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Service handles product business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new product service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListRequest represents product listing query parameters
type ListRequest struct {
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
	Search     string `form:"q"`
	CategoryID uint   `form:"category_id"`
}

// Normalize clamps paging values to sane bounds
func (r *ListRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PerPage < 1 {
		r.PerPage = defaultPerPage
	}
	if r.PerPage > maxPerPage {
		r.PerPage = maxPerPage
	}
	r.Search = strings.TrimSpace(r.Search)
}

// PageMeta describes one page of a listing
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// NewPageMeta computes paging info; an empty listing still has one page
func NewPageMeta(page, perPage int, total int64) PageMeta {
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	return PageMeta{CurrentPage: page, LastPage: last, PerPage: perPage, Total: total}
}

// ListResponse is one page of product payloads
type ListResponse struct {
	Data []Payload `json:"data"`
	Meta PageMeta  `json:"meta"`
}

// GetProducts retrieves active products with filtering and pagination
func (s *Service) GetProducts(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	req.Normalize()

	var products []Product
	var total int64

	query := s.db.WithContext(ctx).Model(&Product{}).Where("is_active = ?", true)

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", search, search)
	}

	// Count total records
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (req.Page - 1) * req.PerPage
	if err := query.Order("name ASC, id ASC").Offset(offset).Limit(req.PerPage).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	data := make([]Payload, 0, len(products))
	for _, p := range products {
		data = append(data, p.Payload())
	}
	return &ListResponse{Data: data, Meta: NewPageMeta(req.Page, req.PerPage, total)}, nil
}

// GetProduct retrieves a single active product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// GenerateSlug builds a URL slug from a product or category name
func GenerateSlug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
