// Package statetest provides an in-memory remote cart for exercising the
// cart state manager without a running API.
package statetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
)

// ErrNotFound mirrors the API's 404 for an unknown cart item
var ErrNotFound = errors.New("cart item not found")

// Gateway is an authoritative cart held in memory. It applies mutations the
// way the API does and echoes them back from Cart.
type Gateway struct {
	mu    sync.Mutex
	lines []item.CartLine
	fail  map[string]error
	calls []string

	// OmitDisplay drops image, weight and units from Cart responses
	OmitDisplay bool
	// Hold, when set, runs after a Cart response is built and before it is
	// returned, letting tests delay a refresh that already read its snapshot
	Hold func(ctx context.Context)
}

func NewGateway(lines ...item.CartLine) *Gateway {
	g := &Gateway{fail: make(map[string]error)}
	for _, l := range lines {
		g.lines = append(g.lines, l.Clone())
	}
	return g
}

// FailOn makes every call to op ("cart", "add", "update", "remove", "clear")
// return err. A nil err clears the failure.
func (g *Gateway) FailOn(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.fail, op)
		return
	}
	g.fail[op] = err
}

// Calls lists the operations received so far
func (g *Gateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// Snapshot returns the authoritative lines
func (g *Gateway) Snapshot() []item.CartLine {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]item.CartLine, len(g.lines))
	for i, l := range g.lines {
		out[i] = l.Clone()
	}
	return out
}

func (g *Gateway) Cart(ctx context.Context) ([]item.Payload, error) {
	out, err := g.snapshotPayloads()
	if err != nil {
		return nil, err
	}
	if g.Hold != nil {
		g.Hold(ctx)
	}
	return out, nil
}

func (g *Gateway) snapshotPayloads() ([]item.Payload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("cart"); err != nil {
		return nil, err
	}
	out := make([]item.Payload, 0, len(g.lines))
	for _, l := range g.lines {
		if g.OmitDisplay {
			l.Image, l.Weight, l.Units = "", "", nil
		}
		out = append(out, l.Payload())
	}
	return out, nil
}

func (g *Gateway) AddItem(_ context.Context, product item.Product, qty int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("add"); err != nil {
		return err
	}
	if qty < 1 {
		return fmt.Errorf("qty must be at least 1")
	}
	if i := g.index(product.ID); i >= 0 {
		g.lines[i].Quantity += qty
		g.lines[i].Selected = true
		return nil
	}
	g.lines = append(g.lines, item.CartLine{Product: product.Clone(), Quantity: qty, Selected: true})
	return nil
}

func (g *Gateway) UpdateItem(_ context.Context, productID string, patch item.Patch) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("update"); err != nil {
		return err
	}
	i := g.index(productID)
	if i < 0 {
		return ErrNotFound
	}
	if patch.Qty != nil {
		if *patch.Qty <= 0 {
			g.lines = append(g.lines[:i], g.lines[i+1:]...)
			return nil
		}
		g.lines[i].Quantity = *patch.Qty
	}
	if patch.Selected != nil {
		g.lines[i].Selected = *patch.Selected
	}
	if patch.Wish != nil {
		g.lines[i].Wish = *patch.Wish
	}
	return nil
}

func (g *Gateway) RemoveItem(_ context.Context, productID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("remove"); err != nil {
		return err
	}
	if i := g.index(productID); i >= 0 {
		g.lines = append(g.lines[:i], g.lines[i+1:]...)
	}
	return nil
}

func (g *Gateway) Clear(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("clear"); err != nil {
		return err
	}
	g.lines = nil
	return nil
}

func (g *Gateway) record(op string) error {
	g.calls = append(g.calls, op)
	return g.fail[op]
}

func (g *Gateway) index(id string) int {
	for i, l := range g.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}
