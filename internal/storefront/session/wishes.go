package session

import (
	"context"

	"github.com/your-org/pharmacy-storefront/internal/pkg/events"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
	"github.com/your-org/pharmacy-storefront/internal/storefront/wishlist"
)

// WishlistView is the merged wishlist page, optionally filtered by name
func (s *Session) WishlistView(ctx context.Context, query string) []wishlist.View {
	views := wishlist.Merge(s.cart.Lines(), s.wishlist().List(ctx), query)
	for i := range views {
		views[i].Product = s.display(views[i].Product)
	}
	return views
}

// Wish likes a product: a cart line gets its wish flag, anything else is
// kept in the local wishlist.
func (s *Session) Wish(ctx context.Context, product item.Payload) error {
	p := item.NormalizeProduct(product)
	if !p.Valid() {
		return item.ErrInvalidProduct
	}

	if line, ok := s.cart.Line(p.ID); ok {
		if !line.Wish {
			s.cart.ToggleWish(ctx, p.ID)
		}
	} else if err := s.wishlist().Add(ctx, p); err != nil {
		return err
	}
	s.bus.Publish(events.WishlistChanged, p.ID)
	return nil
}

// Unwish removes a product from the wishlist. A cart-backed wish only loses
// its flag; the cart line stays.
func (s *Session) Unwish(ctx context.Context, id string) error {
	if line, ok := s.cart.Line(id); ok && line.Wish {
		s.cart.ToggleWish(ctx, id)
	}
	return s.dropLocal(ctx, s.wishlist(), id)
}

// Promote moves a local wishlist entry into the cart as a wished line
func (s *Session) Promote(ctx context.Context, id string) error {
	for _, e := range s.wishlist().List(ctx) {
		if e.ID == id {
			return s.AddToCart(ctx, e.Payload(), 1)
		}
	}
	if line, ok := s.cart.Line(id); ok && line.Wish {
		return nil
	}
	return ErrNotInWishlist
}

// Increment raises a wished line's quantity, promoting local entries
func (s *Session) Increment(ctx context.Context, id string) error {
	if line, ok := s.cart.Line(id); ok {
		s.cart.SetQty(ctx, id, line.Quantity+1)
		return nil
	}
	return s.Promote(ctx, id)
}

// Decrement lowers a line's quantity, stopping at one
func (s *Session) Decrement(ctx context.Context, id string) {
	if line, ok := s.cart.Line(id); ok && line.Quantity > 1 {
		s.cart.SetQty(ctx, id, line.Quantity-1)
	}
}

func (s *Session) dropLocal(ctx context.Context, store *wishlist.Store, id string) error {
	if err := store.Remove(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(events.WishlistChanged, id)
	return nil
}
