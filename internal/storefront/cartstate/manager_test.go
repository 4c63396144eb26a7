package cartstate

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pharmacy-storefront/internal/pkg/events"
	"github.com/your-org/pharmacy-storefront/internal/pkg/logger"
	"github.com/your-org/pharmacy-storefront/internal/storefront/cartstate/statetest"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
)

func newTestManager(t *testing.T, lines ...item.CartLine) (*Manager, *statetest.Gateway, *events.Bus) {
	t.Helper()
	gw := statetest.NewGateway(lines...)
	bus := events.NewBus()
	m := NewManager(gw, bus, logger.Discard())
	require.NoError(t, m.Refresh(context.Background()))
	return m, gw, bus
}

func line(id string, qty int) item.CartLine {
	return item.CartLine{
		Product:  item.Product{ID: id, Name: "Product " + id, UnitPriceUSD: 1},
		Quantity: qty,
		Selected: true,
	}
}

func TestAdd_EmptyCart(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	err := m.Add(ctx, item.Payload{"id": "7", "name": "Vitamins", "price": 12.99}, 1)
	require.NoError(t, err)

	l, ok := m.Line("7")
	require.True(t, ok)
	assert.Equal(t, "Vitamins", l.Name)
	assert.Equal(t, 12.99, l.UnitPriceUSD)
	assert.Equal(t, 1, l.Quantity)
	assert.True(t, l.Selected)
	assert.False(t, l.Wish)
	assert.Equal(t, 1, m.Counts().Quantity)
}

func TestAdd_InvalidProduct(t *testing.T) {
	ctx := context.Background()
	m, gw, _ := newTestManager(t)
	before := len(gw.Calls())

	err := m.Add(ctx, item.Payload{"name": "No id"}, 1)
	require.ErrorIs(t, err, item.ErrInvalidProduct)
	assert.Empty(t, m.Lines())
	assert.Len(t, gw.Calls(), before, "no remote call for an invalid product")
}

func TestAdd_IncrementsAndDefaultsQuantity(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	require.NoError(t, m.Add(ctx, item.Payload{"id": 7}, 0))
	require.NoError(t, m.Add(ctx, item.Payload{"product_id": "7"}, 2))

	l, _ := m.Line("7")
	assert.Equal(t, 3, l.Quantity)
	assert.Equal(t, 1, m.Counts().Lines)
}

func TestSetQty(t *testing.T) {
	ctx := context.Background()
	m, gw, _ := newTestManager(t, line("7", 2), line("8", 1))

	m.SetQty(ctx, "7", 5)

	l, _ := m.Line("7")
	assert.Equal(t, 5, l.Quantity)
	assert.Equal(t, 6, m.Counts().Quantity)

	calls := len(gw.Calls())
	m.SetQty(ctx, "missing", 3)
	assert.Len(t, gw.Calls(), calls, "absent identity is a no-op")
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	m, gw, _ := newTestManager(t, line("1", 1), line("2", 2), line("3", 3))

	m.Remove(ctx, "2")

	ids := []string{}
	for _, l := range m.Lines() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"1", "3"}, ids)
	assert.Len(t, gw.Snapshot(), 2)
}

func TestToggleWish_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, line("7", 1))

	m.ToggleWish(ctx, "7")
	l, _ := m.Line("7")
	assert.True(t, l.Wish)
	assert.Equal(t, 1, m.Counts().Wished)

	m.ToggleWish(ctx, "7")
	l, _ = m.Line("7")
	assert.False(t, l.Wish)
}

func TestToggleSelect_Counts(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, line("1", 2), line("2", 3))

	m.ToggleSelect(ctx, "1")

	assert.Equal(t, Counts{Lines: 2, Quantity: 5, SelectedLines: 1, SelectedQuantity: 3}, m.Counts())
	require.Len(t, m.Selected(), 1)
	assert.Equal(t, "2", m.Selected()[0].ID)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, line("1", 2), line("2", 3))

	m.Clear(ctx)

	assert.Empty(t, m.Lines())
	assert.Equal(t, Counts{}, m.Counts())
}

func TestRemoteFailure_ReconcilesToServer(t *testing.T) {
	ctx := context.Background()
	m, gw, bus := newTestManager(t)

	var seen []Counts
	bus.Subscribe(events.CartChanged, func(e events.Event) {
		seen = append(seen, e.Payload.(Counts))
	})
	gw.FailOn("add", errors.New("502 bad gateway"))

	require.NoError(t, m.Add(ctx, item.Payload{"id": "7"}, 1))

	assert.Empty(t, m.Lines(), "refresh supersedes the optimistic line")
	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0].Lines, "optimistic state is published first")
	assert.Equal(t, 0, seen[1].Lines)
}

func TestRefreshFailure_KeepsLastKnownCart(t *testing.T) {
	ctx := context.Background()
	m, gw, _ := newTestManager(t, line("1", 2))

	gw.FailOn("cart", errors.New("timeout"))
	require.Error(t, m.Refresh(ctx))
	assert.Len(t, m.Lines(), 1)

	m.SetQty(ctx, "1", 4)
	l, _ := m.Line("1")
	assert.Equal(t, 4, l.Quantity, "optimistic value stays visible until a refresh succeeds")
}

func TestRefresh_PreservesDisplayFields(t *testing.T) {
	ctx := context.Background()
	l := line("1", 1)
	l.Image = "https://cdn.example.com/1.png"
	l.Weight = "500g"
	l.Units = []item.Unit{{UnitName: "Box"}}
	m, gw, _ := newTestManager(t, l)

	gw.OmitDisplay = true
	require.NoError(t, m.Refresh(ctx))

	got, _ := m.Line("1")
	assert.Equal(t, l.Image, got.Image)
	assert.Equal(t, l.Weight, got.Weight)
	assert.Equal(t, l.Units, got.Units)
}

func TestRefresh_DropsStaleResult(t *testing.T) {
	ctx := context.Background()
	m, gw, _ := newTestManager(t, line("1", 1))

	entered := make(chan struct{})
	release := make(chan struct{})
	var held atomic.Bool
	gw.Hold = func(context.Context) {
		if held.CompareAndSwap(false, true) {
			close(entered)
			<-release
		}
	}

	done := make(chan error)
	go func() { done <- m.Refresh(ctx) }()
	<-entered

	require.NoError(t, gw.AddItem(ctx, item.Product{ID: "2"}, 1))
	require.NoError(t, m.Refresh(ctx))
	close(release)
	require.NoError(t, <-done)

	assert.Len(t, m.Lines(), 2, "the older snapshot must not overwrite the newer one")
}

func TestConcurrentAdds_SameIdentity(t *testing.T) {
	ctx := context.Background()
	m, gw, _ := newTestManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Add(ctx, item.Payload{"id": "7"}, 1)
		}()
	}
	wg.Wait()

	require.NoError(t, m.Refresh(ctx))
	l, _ := m.Line("7")
	assert.Equal(t, 20, l.Quantity)
	assert.Equal(t, 20, gw.Snapshot()[0].Quantity)
	assert.Zero(t, m.locks.size(), "idle keys are released")
}

func TestRandomSequences_TotalQuantity(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	ids := []string{"1", "2", "3", "4"}

	for round := 0; round < 50; round++ {
		m, _, _ := newTestManager(t)
		expected := map[string]int{}

		for step := 0; step < 20; step++ {
			id := ids[rng.Intn(len(ids))]
			switch rng.Intn(3) {
			case 0:
				qty := rng.Intn(3) + 1
				require.NoError(t, m.Add(ctx, item.Payload{"id": id}, qty))
				expected[id] += qty
			case 1:
				m.Remove(ctx, id)
				delete(expected, id)
			case 2:
				qty := rng.Intn(5) + 1
				m.SetQty(ctx, id, qty)
				if _, ok := expected[id]; ok {
					expected[id] = qty
				}
			}
		}
		require.NoError(t, m.Refresh(ctx))

		want := 0
		for _, q := range expected {
			want += q
		}
		assert.Equal(t, want, m.Counts().Quantity, "round %d", round)
		assert.Equal(t, len(expected), m.Counts().Lines, "round %d", round)
	}
}
