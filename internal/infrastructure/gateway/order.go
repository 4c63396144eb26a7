package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Customer is the delivery contact of an order
type Customer struct {
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address"`
	Province    string `json:"province,omitempty"`
	District    string `json:"district,omitempty"`
	Commune     string `json:"commune,omitempty"`
	Village     string `json:"village,omitempty"`
	SaveDefault bool   `json:"save_default"`
}

// OrderLine is one ordered product
type OrderLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	PriceUSD  float64 `json:"price_usd"`
	Qty       int     `json:"qty"`
}

// OrderDraft is the checkout submission built from the selected cart lines
type OrderDraft struct {
	Customer      Customer    `json:"customer"`
	PaymentMethod string      `json:"payment_method"`
	DeliverySlot  string      `json:"delivery_slot,omitempty"`
	Note          string      `json:"note,omitempty"`
	Items         []OrderLine `json:"items"`
}

// Order is a placed order as returned by the API
type Order struct {
	ID            uint        `json:"id"`
	OrderNumber   string      `json:"order_number"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"payment_method"`
	DeliverySlot  string      `json:"delivery_slot,omitempty"`
	Note          string      `json:"note,omitempty"`
	SubtotalUSD   float64     `json:"subtotal_usd"`
	Customer      Customer    `json:"customer"`
	Items         []OrderLine `json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
}

// PlaceOrder submits a draft
func (c *Client) PlaceOrder(ctx context.Context, draft OrderDraft) (Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "client/orders", draft, &raw); err != nil {
		return Order{}, err
	}
	return decodeOrder(raw)
}

// Order fetches one of the caller's orders
func (c *Client) Order(ctx context.Context, id string) (Order, error) {
	rel, err := resource("client/orders/", id, "")
	if err != nil {
		return Order{}, err
	}
	var raw json.RawMessage
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &raw); err != nil {
		return Order{}, err
	}
	return decodeOrder(raw)
}

// Invoice downloads the PDF receipt of an order
func (c *Client) Invoice(ctx context.Context, id string) ([]byte, error) {
	rel, err := resource("client/orders/", id, "/invoice")
	if err != nil {
		return nil, err
	}
	data, _, err := c.doRaw(ctx, http.MethodGet, rel, "application/pdf")
	return data, err
}

func decodeOrder(raw json.RawMessage) (Order, error) {
	var o Order
	if err := json.Unmarshal(unwrap(raw), &o); err != nil {
		return Order{}, fmt.Errorf("decode order: %w", err)
	}
	return o, nil
}
