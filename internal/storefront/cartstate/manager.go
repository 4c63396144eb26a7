// Package cartstate owns the storefront's in-memory cart and reconciles it
// with the remote cart after every mutation.
package cartstate

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/pkg/events"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
)

// Gateway is the remote, authoritative cart
type Gateway interface {
	Cart(ctx context.Context) ([]item.Payload, error)
	AddItem(ctx context.Context, product item.Product, qty int) error
	UpdateItem(ctx context.Context, productID string, patch item.Patch) error
	RemoveItem(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

// Counts are derived from the line map and never stored separately
type Counts struct {
	Lines            int `json:"lines"`
	Quantity         int `json:"quantity"`
	SelectedLines    int `json:"selected_lines"`
	SelectedQuantity int `json:"selected_quantity"`
	Wished           int `json:"wished"`
}

// Manager applies optimistic cart mutations and then replaces its state with
// the gateway's view. Remote mutation failures are logged, not returned: the
// trailing refresh decides what the cart holds.
//
// Mutations on the same product id run one at a time. Clear excludes every
// other mutation. A refresh result is dropped when a refresh that started
// later has already been applied.
type Manager struct {
	gw  Gateway
	bus events.Publisher
	log logrus.FieldLogger

	ops   sync.RWMutex
	locks *keyedMutex

	mu      sync.RWMutex
	lines   map[string]item.CartLine
	order   []string
	applied uint64

	started atomic.Uint64
}

// NewManager creates an empty manager; call Refresh to hydrate it
func NewManager(gw Gateway, bus events.Publisher, log logrus.FieldLogger) *Manager {
	if bus == nil {
		bus = events.Nop{}
	}
	return &Manager{
		gw:    gw,
		bus:   bus,
		log:   log,
		locks: newKeyedMutex(),
		lines: make(map[string]item.CartLine),
	}
}

// Refresh replaces the line map with the gateway's cart. Display fields the
// response omits are carried over from the previous line with the same id.
// On error the current map is kept.
func (m *Manager) Refresh(ctx context.Context) error {
	seq := m.started.Add(1)

	payloads, err := m.gw.Cart(ctx)
	if err != nil {
		m.log.WithError(err).WithField("op", "refresh").Warn("cart refresh failed, keeping last known cart")
		return err
	}

	m.mu.Lock()
	if seq < m.applied {
		m.mu.Unlock()
		m.log.WithField("op", "refresh").Debug("dropping stale cart refresh")
		return nil
	}

	next := make(map[string]item.CartLine, len(payloads))
	order := make([]string, 0, len(payloads))
	for _, p := range payloads {
		line := item.NormalizeLine(p)
		if !line.Valid() {
			m.log.WithField("op", "refresh").Warn("skipping cart item without product id")
			continue
		}
		if line.Quantity < 1 {
			continue
		}
		if _, dup := next[line.ID]; dup {
			m.log.WithFields(logrus.Fields{"op": "refresh", "product_id": line.ID}).Warn("duplicate cart item in response")
			continue
		}
		if prev, ok := m.lines[line.ID]; ok {
			line = keepDisplay(line, prev)
		}
		next[line.ID] = line
		order = append(order, line.ID)
	}
	m.lines = next
	m.order = order
	m.applied = seq
	counts := m.countsLocked()
	m.mu.Unlock()

	m.bus.Publish(events.CartChanged, counts)
	return nil
}

func keepDisplay(line, prev item.CartLine) item.CartLine {
	if line.Image == "" {
		line.Image = prev.Image
	}
	if line.Weight == "" {
		line.Weight = prev.Weight
	}
	if len(line.Units) == 0 && len(prev.Units) > 0 {
		line.Units = append([]item.Unit(nil), prev.Units...)
	}
	return line
}

// Add increments an existing line or inserts a selected, unwished one, pushes
// the change and refreshes. Only an unresolvable identity is reported.
func (m *Manager) Add(ctx context.Context, product item.Payload, qty int) error {
	p := item.NormalizeProduct(product)
	if !p.Valid() {
		return item.ErrInvalidProduct
	}
	if qty <= 0 {
		qty = 1
	}

	unlock := m.acquire(p.ID)
	defer unlock()

	m.mutate(func() {
		if line, ok := m.lines[p.ID]; ok {
			line.Quantity += qty
			m.lines[p.ID] = line
			return
		}
		m.lines[p.ID] = item.CartLine{Product: p.Clone(), Quantity: qty, Selected: true}
		m.order = append(m.order, p.ID)
	})

	if err := m.gw.AddItem(ctx, p, qty); err != nil {
		m.remoteFailed("add", p.ID, err)
	}
	_ = m.Refresh(ctx)
	return nil
}

// SetQty overwrites the quantity of an existing line. Values are not clamped.
func (m *Manager) SetQty(ctx context.Context, id string, qty int) {
	unlock := m.acquire(id)
	defer unlock()

	if !m.update(id, func(l *item.CartLine) { l.Quantity = qty }) {
		return
	}
	if err := m.gw.UpdateItem(ctx, id, item.Patch{Qty: &qty}); err != nil {
		m.remoteFailed("set_qty", id, err)
	}
	_ = m.Refresh(ctx)
}

// Remove deletes the line locally and remotely
func (m *Manager) Remove(ctx context.Context, id string) {
	unlock := m.acquire(id)
	defer unlock()

	m.mutate(func() {
		if _, ok := m.lines[id]; !ok {
			return
		}
		delete(m.lines, id)
		for i, k := range m.order {
			if k == id {
				m.order = append(m.order[:i:i], m.order[i+1:]...)
				break
			}
		}
	})

	if err := m.gw.RemoveItem(ctx, id); err != nil {
		m.remoteFailed("remove", id, err)
	}
	_ = m.Refresh(ctx)
}

// ToggleSelect flips whether the line takes part in checkout
func (m *Manager) ToggleSelect(ctx context.Context, id string) {
	unlock := m.acquire(id)
	defer unlock()

	var selected bool
	if !m.update(id, func(l *item.CartLine) { l.Selected = !l.Selected; selected = l.Selected }) {
		return
	}
	if err := m.gw.UpdateItem(ctx, id, item.Patch{Selected: &selected}); err != nil {
		m.remoteFailed("toggle_select", id, err)
	}
	_ = m.Refresh(ctx)
}

// ToggleWish flips the line's wish flag
func (m *Manager) ToggleWish(ctx context.Context, id string) {
	unlock := m.acquire(id)
	defer unlock()

	var wish bool
	if !m.update(id, func(l *item.CartLine) { l.Wish = !l.Wish; wish = l.Wish }) {
		return
	}
	if err := m.gw.UpdateItem(ctx, id, item.Patch{Wish: &wish}); err != nil {
		m.remoteFailed("toggle_wish", id, err)
	}
	_ = m.Refresh(ctx)
}

// Clear empties the remote cart and refreshes
func (m *Manager) Clear(ctx context.Context) {
	m.ops.Lock()
	defer m.ops.Unlock()

	if err := m.gw.Clear(ctx); err != nil {
		m.remoteFailed("clear", "", err)
	}
	_ = m.Refresh(ctx)
}

// Lines returns a copy of the cart in server order
func (m *Manager) Lines() []item.CartLine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]item.CartLine, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.lines[id].Clone())
	}
	return out
}

// Selected returns the lines that take part in checkout
func (m *Manager) Selected() []item.CartLine {
	lines := m.Lines()
	out := lines[:0]
	for _, l := range lines {
		if l.Selected {
			out = append(out, l)
		}
	}
	return out
}

// Line looks up one line by product id
func (m *Manager) Line(id string) (item.CartLine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lines[id]
	return l.Clone(), ok
}

// Counts returns the derived cart totals
func (m *Manager) Counts() Counts {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countsLocked()
}

func (m *Manager) countsLocked() Counts {
	var c Counts
	for _, l := range m.lines {
		c.Lines++
		c.Quantity += l.Quantity
		if l.Selected {
			c.SelectedLines++
			c.SelectedQuantity += l.Quantity
		}
		if l.Wish {
			c.Wished++
		}
	}
	return c
}

func (m *Manager) acquire(id string) func() {
	m.ops.RLock()
	release := m.locks.lock(id)
	return func() {
		release()
		m.ops.RUnlock()
	}
}

func (m *Manager) mutate(fn func()) {
	m.mu.Lock()
	fn()
	counts := m.countsLocked()
	m.mu.Unlock()
	m.bus.Publish(events.CartChanged, counts)
}

// update applies fn to an existing line and reports whether it was present
func (m *Manager) update(id string, fn func(*item.CartLine)) bool {
	m.mu.Lock()
	line, ok := m.lines[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	fn(&line)
	m.lines[id] = line
	counts := m.countsLocked()
	m.mu.Unlock()
	m.bus.Publish(events.CartChanged, counts)
	return true
}

func (m *Manager) remoteFailed(op, id string, err error) {
	entry := m.log.WithError(err).WithField("op", op)
	if id != "" {
		entry = entry.WithField("product_id", id)
	}
	entry.Warn("remote cart mutation failed, reconciling from server")
}
