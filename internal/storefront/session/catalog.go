package session

import (
	"context"
	"fmt"

	"github.com/your-org/pharmacy-storefront/internal/infrastructure/gateway"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
	"github.com/your-org/pharmacy-storefront/internal/storefront/wishlist"
	"golang.org/x/sync/errgroup"
)

// ProductCard is a catalog product annotated with this session's cart state
type ProductCard struct {
	item.Product
	InCartQty int  `json:"in_cart_qty"`
	Wished    bool `json:"wished"`
}

// ProductList is one annotated page of the catalog
type ProductList struct {
	Items []ProductCard    `json:"items"`
	Meta  gateway.PageMeta `json:"meta"`
}

// Badges are the header counters
type Badges struct {
	CartQuantity int    `json:"cart_qty"`
	CartLines    int    `json:"cart_lines"`
	Wishlist     int    `json:"wishlist"`
	UnreadAlerts int    `json:"unread_alerts"`
	Revision     uint64 `json:"revision"`
}

// Bootstrap is everything the first page render needs
type Bootstrap struct {
	User       *gateway.User      `json:"user"`
	Categories []gateway.Category `json:"categories"`
	Alerts     []gateway.Alert    `json:"alerts"`
	Badges     Badges             `json:"badges"`
}

// Bootstrap refreshes the cart and loads categories and, for signed-in
// sessions, alerts concurrently. Whatever loaded is returned together with
// the first failure.
func (s *Session) Bootstrap(ctx context.Context) (Bootstrap, error) {
	out := Bootstrap{
		User:       s.User(),
		Categories: []gateway.Category{},
		Alerts:     []gateway.Alert{},
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := s.cart.Refresh(ctx); err != nil {
			return fmt.Errorf("cart: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		categories, err := s.api.Categories(ctx)
		if err != nil {
			s.log.WithError(err).Warn("categories failed to load")
			return fmt.Errorf("categories: %w", err)
		}
		out.Categories = categories
		return nil
	})
	if s.Authenticated() {
		g.Go(func() error {
			alerts, err := s.Alerts(ctx)
			if err != nil {
				return fmt.Errorf("alerts: %w", err)
			}
			out.Alerts = alerts
			return nil
		})
	}
	err := g.Wait()

	out.Badges = s.Badges(ctx)
	return out, err
}

// Badges computes the header counters. The wishlist badge counts the merged
// wishlist so a product is never counted twice.
func (s *Session) Badges(ctx context.Context) Badges {
	counts := s.cart.Counts()
	merged := wishlist.Merge(s.cart.Lines(), s.wishlist().List(ctx), "")

	s.mu.RLock()
	unread := s.unread
	s.mu.RUnlock()

	return Badges{
		CartQuantity: counts.Quantity,
		CartLines:    counts.Lines,
		Wishlist:     len(merged),
		UnreadAlerts: unread,
		Revision:     s.Revision(),
	}
}

// Products lists a catalog page annotated with cart quantity and wish state
func (s *Session) Products(ctx context.Context, query gateway.ProductQuery) (ProductList, error) {
	page, err := s.api.Products(ctx, query)
	if err != nil {
		return ProductList{}, err
	}

	local := s.localIDs(ctx)
	out := ProductList{Items: make([]ProductCard, 0, len(page.Items)), Meta: page.Meta}
	for _, raw := range page.Items {
		p := item.NormalizeProduct(raw)
		if !p.Valid() {
			continue
		}
		out.Items = append(out.Items, s.card(p, local))
	}
	return out, nil
}

// Product fetches one annotated product
func (s *Session) Product(ctx context.Context, id string) (ProductCard, error) {
	raw, err := s.api.Product(ctx, id)
	if err != nil {
		return ProductCard{}, err
	}
	p := item.NormalizeProduct(raw)
	if !p.Valid() {
		return ProductCard{}, item.ErrInvalidProduct
	}
	return s.card(p, s.localIDs(ctx)), nil
}

func (s *Session) card(p item.Product, local map[string]bool) ProductCard {
	c := ProductCard{Product: s.display(p), Wished: local[p.ID]}
	if line, ok := s.cart.Line(p.ID); ok {
		c.InCartQty = line.Quantity
		c.Wished = c.Wished || line.Wish
	}
	return c
}

func (s *Session) localIDs(ctx context.Context) map[string]bool {
	entries := s.wishlist().List(ctx)
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.ID] = true
	}
	return ids
}

// Alerts fetches the customer's notifications and updates the unread badge
func (s *Session) Alerts(ctx context.Context) ([]gateway.Alert, error) {
	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	alerts, err := s.api.Alerts(ctx)
	if err != nil {
		s.log.WithError(err).Warn("alerts failed to load")
		return nil, err
	}
	unread := 0
	for _, a := range alerts {
		if a.Unread() {
			unread++
		}
	}
	s.mu.Lock()
	s.unread = unread
	s.mu.Unlock()
	return alerts, nil
}

// MarkAlertRead marks one alert read and reloads the badge
func (s *Session) MarkAlertRead(ctx context.Context, id string) error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	if err := s.api.MarkAlertRead(ctx, id); err != nil {
		return err
	}
	_, _ = s.Alerts(ctx)
	return nil
}

// MarkAllAlertsRead marks every alert read
func (s *Session) MarkAllAlertsRead(ctx context.Context) error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	if err := s.api.MarkAllAlertsRead(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.unread = 0
	s.mu.Unlock()
	return nil
}
