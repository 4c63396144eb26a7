package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
)

type upsertRequest struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	PriceUSD  float64     `json:"price_usd"`
	Qty       int         `json:"qty"`
	Image     string      `json:"image,omitempty"`
	Weight    string      `json:"weight,omitempty"`
	Units     []item.Unit `json:"units,omitempty"`
}

// Cart returns the raw items of the caller's cart. It accepts
// {"data":{"items":[...]}}, {"items":[...]}, {"data":[...]} and bare arrays.
func (c *Client) Cart(ctx context.Context) ([]item.Payload, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "client/cart", nil, &raw); err != nil {
		return nil, err
	}
	return decodeItems(raw)
}

func decodeItems(raw json.RawMessage) ([]item.Payload, error) {
	body := unwrap(raw)
	if len(body) > 0 && body[0] == '{' {
		var wrapped struct {
			Items json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("decode cart: %w", err)
		}
		body = bytes.TrimSpace(wrapped.Items)
	}
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []item.Payload{}, nil
	}
	var items []item.Payload
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	return items, nil
}

// AddItem upserts qty units of product into the remote cart
func (c *Client) AddItem(ctx context.Context, product item.Product, qty int) error {
	return c.do(ctx, http.MethodPost, "client/cart/items", upsertRequest{
		ProductID: product.ID,
		Name:      product.Name,
		PriceUSD:  product.UnitPriceUSD,
		Qty:       qty,
		Image:     product.Image,
		Weight:    product.Weight,
		Units:     product.Units,
	}, nil)
}

// UpdateItem sends a partial line update
func (c *Client) UpdateItem(ctx context.Context, productID string, patch item.Patch) error {
	rel, err := resource("client/cart/items/", productID, "")
	if err != nil {
		return err
	}
	return c.doURL(ctx, http.MethodPatch, rel, patch, nil)
}

// RemoveItem deletes one line
func (c *Client) RemoveItem(ctx context.Context, productID string) error {
	rel, err := resource("client/cart/items/", productID, "")
	if err != nil {
		return err
	}
	return c.doURL(ctx, http.MethodDelete, rel, nil, nil)
}

// Clear empties the remote cart
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "client/cart/clear", nil, nil)
}
