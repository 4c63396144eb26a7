// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/domain/cart"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
	"github.com/your-org/pharmacy-storefront/internal/storefront/pricing"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrInvalidLine          = errors.New("order line needs a product_id and qty of at least 1")
	ErrIncompleteCustomer   = errors.New("customer full_name, phone and address are required")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrBelowMinimum         = errors.New("order total is below the minimum order amount")
)

// ProfileSaver stores a customer's default delivery address
type ProfileSaver interface {
	SaveDefaultAddress(ctx context.Context, userID uint, address, province, district string) error
}

// Notifier raises a customer alert
type Notifier interface {
	Notify(ctx context.Context, userID uint, kind, title, body string) error
}

// Service handles order business logic
type Service struct {
	repo     Repository
	carts    *cart.Service
	profiles ProfileSaver
	notifier Notifier
	rules    pricing.Rules
	log      logrus.FieldLogger
}

// NewService creates a new order service. profiles and notifier may be nil.
func NewService(repo Repository, carts *cart.Service, profiles ProfileSaver, notifier Notifier, rules pricing.Rules, log logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		carts:    carts,
		profiles: profiles,
		notifier: notifier,
		rules:    rules,
		log:      log,
	}
}

// CustomerRequest is the delivery contact submitted at checkout
type CustomerRequest struct {
	Customer
	SaveDefault bool `json:"save_default"`
}

// LineRequest is one submitted order line
type LineRequest struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	PriceUSD  float64 `json:"price_usd"`
	Quantity  int     `json:"qty"`
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	Customer      CustomerRequest `json:"customer"`
	PaymentMethod string          `json:"payment_method"`
	DeliverySlot  string          `json:"delivery_slot"`
	Note          string          `json:"note"`
	Items         []LineRequest   `json:"items"`
}

func (r *CreateOrderRequest) validate(rules pricing.Rules) error {
	if len(r.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, l := range r.Items {
		if strings.TrimSpace(l.ProductID) == "" || l.Quantity < 1 {
			return ErrInvalidLine
		}
	}
	c := r.Customer
	if strings.TrimSpace(c.FullName) == "" || strings.TrimSpace(c.Phone) == "" || strings.TrimSpace(c.Address) == "" {
		return ErrIncompleteCustomer
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = pricing.MethodCOD
	}
	if !rules.Known(r.PaymentMethod) {
		return fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, r.PaymentMethod)
	}
	return nil
}

// CreateOrder places an order for the owner. Unit prices come from the
// owner's cart when the product is in it; ordered products are then
// removed from the cart.
func (s *Service) CreateOrder(ctx context.Context, owner cart.Owner, req *CreateOrderRequest) (*Order, error) {
	if err := req.validate(s.rules); err != nil {
		return nil, err
	}

	cartResponse, err := s.carts.GetCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	prices := make(map[string]float64, len(cartResponse.Items))
	for _, it := range cartResponse.Items {
		prices[it.ProductID] = it.PriceUSD
	}

	o := Order{
		OrderNumber:   GenerateOrderNumber(time.Now().UTC()),
		OwnerKey:      owner.Key(),
		Status:        OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		DeliverySlot:  strings.TrimSpace(req.DeliverySlot),
		Note:          strings.TrimSpace(req.Note),
		Customer:      req.Customer.Customer,
		Items:         make([]OrderItem, 0, len(req.Items)),
	}
	if owner.IsUser() {
		uid := owner.UserID
		o.UserID = &uid
	}

	// Same product submitted twice collapses into one line
	index := make(map[string]int, len(req.Items))
	lines := make([]item.CartLine, 0, len(req.Items))
	for _, l := range req.Items {
		id := strings.TrimSpace(l.ProductID)
		price := l.PriceUSD
		if p, ok := prices[id]; ok {
			price = p
		}
		if price < 0 {
			price = 0
		}
		if i, ok := index[id]; ok {
			o.Items[i].Quantity += l.Quantity
			lines[i].Quantity += l.Quantity
			continue
		}
		index[id] = len(o.Items)
		o.Items = append(o.Items, OrderItem{ProductID: id, Name: l.Name, PriceUSD: price, Quantity: l.Quantity})
		lines = append(lines, item.CartLine{
			Product:  item.Product{ID: id, Name: l.Name, UnitPriceUSD: price},
			Quantity: l.Quantity,
			Selected: true,
		})
	}

	summary := s.rules.Calculate(pricing.Input{Lines: lines, PaymentMethod: o.PaymentMethod})
	if !summary.CanCheckout {
		return nil, fmt.Errorf("%w: %.0f < %.0f KHR", ErrBelowMinimum, summary.TotalKHR, summary.MinOrderKHR)
	}
	for _, it := range o.Items {
		o.SubtotalUSD += it.LineTotalUSD()
	}
	o.ExchangeRate = summary.ExchangeRate
	o.PaymentAdjustmentKHR = summary.PaymentAdjustmentKHR
	o.TotalKHR = summary.TotalKHR

	if err := s.repo.Create(ctx, &o); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	ordered := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ordered = append(ordered, it.ProductID)
	}
	if err := s.carts.RemoveProducts(ctx, owner, ordered...); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"owner":        owner.Key(),
		}).Warn("failed to remove ordered items from cart")
	}

	if req.Customer.SaveDefault && owner.IsUser() && s.profiles != nil {
		c := req.Customer
		if err := s.profiles.SaveDefaultAddress(ctx, owner.UserID, c.Address, c.Province, c.District); err != nil {
			s.log.WithError(err).WithField("user_id", owner.UserID).Warn("failed to save default address")
		}
	}

	if owner.IsUser() && s.notifier != nil {
		body := fmt.Sprintf("Order %s was received. Total %.0f KHR.", o.OrderNumber, o.TotalKHR)
		if err := s.notifier.Notify(ctx, owner.UserID, "order", "Order placed", body); err != nil {
			s.log.WithError(err).WithField("order_number", o.OrderNumber).Warn("failed to raise order alert")
		}
	}

	return &o, nil
}

// GetOrder retrieves one of the owner's orders by numeric id or order number
func (s *Service) GetOrder(ctx context.Context, owner cart.Owner, ref string) (*Order, error) {
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		return s.repo.FindForOwner(ctx, owner.Key(), uint(id))
	}
	return s.repo.FindByNumberForOwner(ctx, owner.Key(), ref)
}

// GetOrders lists the owner's most recent orders
func (s *Service) GetOrders(ctx context.Context, owner cart.Owner) ([]Order, error) {
	orders, err := s.repo.ListForOwner(ctx, owner.Key(), 50)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}
