// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Service handles cart business logic
type Service struct {
	users  Repository
	guests Repository
	log    logrus.FieldLogger
}

// NewService creates a cart service; user carts go to users, guest carts to guests
func NewService(users, guests Repository, log logrus.FieldLogger) *Service {
	return &Service{users: users, guests: guests, log: log}
}

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID string         `json:"product_id"`
	Name      string         `json:"name"`
	PriceUSD  float64        `json:"price_usd"`
	Quantity  int            `json:"qty"`
	Image     string         `json:"image"`
	Weight    string         `json:"weight"`
	Units     datatypes.JSON `json:"units"`
}

// UpdateItemRequest is a partial line update; nil fields are left alone
type UpdateItemRequest struct {
	Quantity *int  `json:"qty"`
	Selected *bool `json:"selected"`
	Wish     *bool `json:"wish"`
}

// CartResponse represents a cart with its items and totals
type CartResponse struct {
	Items  []CartItem `json:"items"`
	Totals Totals     `json:"totals"`
}

func (s *Service) repo(owner Owner) (Repository, error) {
	switch {
	case owner.IsUser():
		return s.users, nil
	case owner.GuestToken != "":
		return s.guests, nil
	default:
		return nil, ErrNoOwner
	}
}

// GetCart retrieves the owner's cart in insertion order
func (s *Service) GetCart(ctx context.Context, owner Owner) (*CartResponse, error) {
	repo, err := s.repo(owner)
	if err != nil {
		return nil, err
	}
	items, err := repo.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []CartItem{}
	}
	return &CartResponse{Items: items, Totals: CalculateTotals(items)}, nil
}

// AddItem increments an existing line or inserts a new one. Adding always
// re-selects the line; product fields are refreshed from the request.
func (s *Service) AddItem(ctx context.Context, owner Owner, req *AddItemRequest) (*CartItem, error) {
	repo, err := s.repo(owner)
	if err != nil {
		return nil, err
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if req.PriceUSD < 0 {
		return nil, ErrInvalidPrice
	}

	item, err := repo.Get(ctx, owner, productID)
	switch {
	case errors.Is(err, ErrItemNotFound):
		item = &CartItem{ProductID: productID, Selected: true}
	case err != nil:
		return nil, err
	}

	item.Quantity += req.Quantity
	item.Selected = true
	if req.Name != "" || item.Name == "" {
		item.Name = req.Name
	}
	// Update price in case it changed
	item.PriceUSD = req.PriceUSD
	if req.Image != "" {
		item.Image = req.Image
	}
	if req.Weight != "" {
		item.Weight = req.Weight
	}
	if len(req.Units) > 0 {
		item.Units = req.Units
	}

	if err := repo.Save(ctx, owner, item); err != nil {
		return nil, fmt.Errorf("failed to save cart item: %w", err)
	}
	return item, nil
}

// UpdateItem applies a partial update. A quantity of zero or less removes
// the line and returns a nil item.
func (s *Service) UpdateItem(ctx context.Context, owner Owner, productID string, req *UpdateItemRequest) (*CartItem, error) {
	repo, err := s.repo(owner)
	if err != nil {
		return nil, err
	}
	item, err := repo.Get(ctx, owner, productID)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil && *req.Quantity <= 0 {
		if err := repo.Delete(ctx, owner, productID); err != nil {
			return nil, fmt.Errorf("failed to remove cart item: %w", err)
		}
		return nil, nil
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Selected != nil {
		item.Selected = *req.Selected
	}
	if req.Wish != nil {
		item.Wish = *req.Wish
	}

	if err := repo.Save(ctx, owner, item); err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes a line; removing a missing line is not an error
func (s *Service) RemoveItem(ctx context.Context, owner Owner, productID string) error {
	return s.RemoveProducts(ctx, owner, productID)
}

// RemoveProducts deletes every listed line from the owner's cart
func (s *Service) RemoveProducts(ctx context.Context, owner Owner, productIDs ...string) error {
	repo, err := s.repo(owner)
	if err != nil {
		return err
	}
	return repo.Delete(ctx, owner, productIDs...)
}

// ClearCart removes all items from the cart
func (s *Service) ClearCart(ctx context.Context, owner Owner) error {
	repo, err := s.repo(owner)
	if err != nil {
		return err
	}
	return repo.Clear(ctx, owner)
}

// MergeGuestCartToUser folds a guest cart into a user's cart when they log
// in. Quantities add up and the selected/wish flags are OR-ed.
func (s *Service) MergeGuestCartToUser(ctx context.Context, userID uint, guestToken string) error {
	if guestToken == "" {
		return nil
	}
	guest := Owner{GuestToken: guestToken}
	user := Owner{UserID: userID}

	items, err := s.guests.List(ctx, guest)
	if err != nil {
		return fmt.Errorf("failed to load guest cart: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	for _, g := range items {
		existing, err := s.users.Get(ctx, user, g.ProductID)
		switch {
		case errors.Is(err, ErrItemNotFound):
			merged := g
			merged.ID = 0
			existing = &merged
		case err != nil:
			return err
		default:
			existing.Quantity += g.Quantity
			existing.Selected = existing.Selected || g.Selected
			existing.Wish = existing.Wish || g.Wish
		}
		if err := s.users.Save(ctx, user, existing); err != nil {
			s.log.WithError(err).WithField("product_id", g.ProductID).Error("failed to merge guest cart item")
			return err
		}
	}

	if err := s.guests.Clear(ctx, guest); err != nil {
		s.log.WithError(err).WithField("guest", guestToken).Warn("failed to clear merged guest cart")
	}
	return nil
}

// GetItemCount returns the total quantity in the cart
func (s *Service) GetItemCount(ctx context.Context, owner Owner) (int, error) {
	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return 0, err
	}
	return cart.Totals.Quantity, nil
}
