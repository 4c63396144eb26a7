package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/your-org/pharmacy-storefront/internal/infrastructure/gateway"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
	"github.com/your-org/pharmacy-storefront/internal/storefront/pricing"
)

// CheckoutRequest is what the checkout form submits
type CheckoutRequest struct {
	Customer      gateway.Customer `json:"customer"`
	PaymentMethod string           `json:"payment_method"`
	DeliverySlot  string           `json:"delivery_slot"`
	Note          string           `json:"note"`
	ShippingKHR   float64          `json:"shipping_khr"`
	CouponKHR     float64          `json:"coupon_khr"`
}

// CheckoutResult is the placed order with the summary it was priced at
type CheckoutResult struct {
	Order   gateway.Order   `json:"order"`
	Summary pricing.Summary `json:"summary"`
}

// BuildDraft turns the selected lines into an order submission.
// Unselected lines are left out.
func BuildDraft(req CheckoutRequest, lines []item.CartLine) gateway.OrderDraft {
	draft := gateway.OrderDraft{
		Customer:      req.Customer,
		PaymentMethod: req.PaymentMethod,
		DeliverySlot:  strings.TrimSpace(req.DeliverySlot),
		Note:          strings.TrimSpace(req.Note),
		Items:         make([]gateway.OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		if !l.Selected {
			continue
		}
		draft.Items = append(draft.Items, gateway.OrderLine{
			ProductID: l.ID,
			Name:      l.Name,
			PriceUSD:  l.UnitPriceUSD,
			Qty:       l.Quantity,
		})
	}
	return draft
}

// Checkout submits the selected lines as an order. The API removes ordered
// lines from the cart, so the cart is refreshed afterwards.
func (s *Session) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	req.Customer = s.withProfile(req.Customer)
	if strings.TrimSpace(req.Customer.FullName) == "" ||
		strings.TrimSpace(req.Customer.Phone) == "" ||
		strings.TrimSpace(req.Customer.Address) == "" {
		return CheckoutResult{}, ErrIncompleteCustomer
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = pricing.MethodCOD
	}
	if !s.rules.Known(req.PaymentMethod) {
		return CheckoutResult{}, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, req.PaymentMethod)
	}

	lines := s.cart.Selected()
	if len(lines) == 0 {
		return CheckoutResult{}, fmt.Errorf("%w: no items selected", ErrCheckoutNotAllowed)
	}

	summary := s.summarize(lines, SummaryOptions{
		PaymentMethod: req.PaymentMethod,
		ShippingKHR:   req.ShippingKHR,
		CouponKHR:     req.CouponKHR,
	})
	if !summary.CanCheckout {
		return CheckoutResult{}, fmt.Errorf("%w: total %.0f below minimum %.0f", ErrCheckoutNotAllowed, summary.TotalKHR, summary.MinOrderKHR)
	}

	order, err := s.api.PlaceOrder(ctx, BuildDraft(req, lines))
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("place order: %w", err)
	}
	s.log.WithField("order_number", order.OrderNumber).Info("order placed")

	_ = s.cart.Refresh(ctx)
	return CheckoutResult{Order: order, Summary: summary}, nil
}

// withProfile fills blank contact fields from the signed-in customer
func (s *Session) withProfile(c gateway.Customer) gateway.Customer {
	u := s.User()
	if u == nil {
		return c
	}
	if strings.TrimSpace(c.FullName) == "" {
		c.FullName = u.Name
	}
	if strings.TrimSpace(c.Phone) == "" {
		c.Phone = u.Phone
	}
	if strings.TrimSpace(c.Email) == "" {
		c.Email = u.Email
	}
	if strings.TrimSpace(c.Address) == "" {
		c.Address = u.Address
	}
	return c
}

// Invoice downloads an order receipt
func (s *Session) Invoice(ctx context.Context, orderID string) ([]byte, error) {
	return s.api.Invoice(ctx, orderID)
}
