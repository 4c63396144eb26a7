package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
)

// Category is a catalog category
type Category struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// ProductQuery filters the product listing
type ProductQuery struct {
	Page       int
	PerPage    int
	Search     string
	CategoryID uint
}

// PageMeta describes one page of a listing
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// ProductPage is one page of raw product payloads
type ProductPage struct {
	Items []item.Payload `json:"data"`
	Meta  PageMeta       `json:"meta"`
}

// Categories lists all catalog categories
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "categories", nil, &raw); err != nil {
		return nil, err
	}
	var categories []Category
	if err := json.Unmarshal(unwrap(raw), &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

// Products fetches one page of products
func (c *Client) Products(ctx context.Context, query ProductQuery) (ProductPage, error) {
	values := url.Values{}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(query.PerPage))
	}
	if q := strings.TrimSpace(query.Search); q != "" {
		values.Set("q", q)
	}
	if query.CategoryID > 0 {
		values.Set("category_id", strconv.FormatUint(uint64(query.CategoryID), 10))
	}
	rel := &url.URL{Path: "client/products", RawQuery: values.Encode()}

	var page ProductPage
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &page); err != nil {
		return ProductPage{}, err
	}
	if page.Items == nil {
		page.Items = []item.Payload{}
	}
	return page, nil
}

// Product fetches a single raw product payload
func (c *Client) Product(ctx context.Context, id string) (item.Payload, error) {
	rel, err := resource("client/products/", id, "")
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &raw); err != nil {
		return nil, err
	}
	var p item.Payload
	if err := json.Unmarshal(unwrap(raw), &p); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	return p, nil
}
