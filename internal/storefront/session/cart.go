package session

import (
	"context"

	"github.com/your-org/pharmacy-storefront/internal/storefront/cartstate"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
	"github.com/your-org/pharmacy-storefront/internal/storefront/pricing"
)

// SummaryOptions are the checkout choices that affect the summary
type SummaryOptions struct {
	PaymentMethod string  `form:"payment_method" json:"payment_method"`
	ShippingKHR   float64 `form:"shipping" json:"shipping_khr"`
	CouponKHR     float64 `form:"coupon" json:"coupon_khr"`
}

// CartView is the cart page: lines in server order, counts and summary
type CartView struct {
	Lines   []item.CartLine  `json:"items"`
	Counts  cartstate.Counts `json:"counts"`
	Summary pricing.Summary  `json:"summary"`
}

// AddToCart adds qty of product. A product wished locally keeps its wish on
// the new cart line and leaves the local wishlist once the line exists.
func (s *Session) AddToCart(ctx context.Context, product item.Payload, qty int) error {
	if err := s.cart.Add(ctx, product, qty); err != nil {
		return err
	}

	id := item.ResolveID(product)
	store := s.wishlist()
	if !store.Has(ctx, id) {
		return nil
	}
	line, ok := s.cart.Line(id)
	if !ok {
		return nil
	}
	if !line.Wish {
		s.cart.ToggleWish(ctx, id)
	}
	return s.dropLocal(ctx, store, id)
}

// SetQuantity sets a line's quantity, never below one
func (s *Session) SetQuantity(ctx context.Context, id string, qty int) {
	if qty < 1 {
		qty = 1
	}
	s.cart.SetQty(ctx, id, qty)
}

// Summary prices the currently selected lines
func (s *Session) Summary(opts SummaryOptions) pricing.Summary {
	return s.summarize(s.cart.Lines(), opts)
}

func (s *Session) summarize(lines []item.CartLine, opts SummaryOptions) pricing.Summary {
	method := opts.PaymentMethod
	if method == "" {
		method = pricing.MethodCOD
	}
	return s.rules.Calculate(pricing.Input{
		Lines:         lines,
		PaymentMethod: method,
		ShippingKHR:   opts.ShippingKHR,
		CouponKHR:     opts.CouponKHR,
	})
}

// CartView renders the cart page
func (s *Session) CartView(opts SummaryOptions) CartView {
	lines := s.cart.Lines()
	for i := range lines {
		lines[i].Product = s.display(lines[i].Product)
	}
	return CartView{
		Lines:   lines,
		Counts:  s.cart.Counts(),
		Summary: s.summarize(lines, opts),
	}
}
