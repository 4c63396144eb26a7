package session

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/gateway"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/kv"
	"github.com/your-org/pharmacy-storefront/internal/pkg/logger"
	"github.com/your-org/pharmacy-storefront/internal/storefront/cartstate/statetest"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
	"github.com/your-org/pharmacy-storefront/internal/storefront/pricing"
)

// fakeAPI is an in-memory pharmacy API. All sessions share one cart.
type fakeAPI struct {
	*statetest.Gateway

	mu         sync.Mutex
	creds      gateway.Credentials
	products   []item.Payload
	categories []gateway.Category
	alerts     []gateway.Alert
	orders     []gateway.OrderDraft
	users      map[string]gateway.User
	logins     []string
	meStatus   int
	failCats   error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		Gateway: statetest.NewGateway(),
		products: []item.Payload{
			{"id": 7, "name": "Vitamins", "price": 12.99},
			{"id": 9, "medicine": map[string]any{"medicine_name": "Zinc", "price": "2.50", "image": "zinc.png"}},
			{"name": "broken"},
		},
		categories: []gateway.Category{{ID: 1, Name: "Vitamins", Slug: "vitamins"}},
		alerts: []gateway.Alert{
			{ID: 1, Title: "Order shipped"},
			{ID: 2, Title: "Promo", ReadAt: timePtr(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))},
		},
		users: map[string]gateway.User{
			"012345678": {ID: 42, Name: "Dara", Phone: "012345678", Email: "dara@example.com"},
		},
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func (f *fakeAPI) connect(creds gateway.Credentials) API {
	f.mu.Lock()
	f.creds = creds
	f.mu.Unlock()
	return f
}

func (f *fakeAPI) Categories(context.Context) ([]gateway.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCats != nil {
		return nil, f.failCats
	}
	return f.categories, nil
}

func (f *fakeAPI) Products(context.Context, gateway.ProductQuery) (gateway.ProductPage, error) {
	return gateway.ProductPage{Items: f.products, Meta: gateway.PageMeta{CurrentPage: 1, LastPage: 1, Total: int64(len(f.products))}}, nil
}

func (f *fakeAPI) Product(_ context.Context, id string) (item.Payload, error) {
	for _, p := range f.products {
		if item.ResolveID(p) == id {
			return p, nil
		}
	}
	return nil, &gateway.APIError{Status: http.StatusNotFound, Message: "Product not found"}
}

func (f *fakeAPI) PlaceOrder(ctx context.Context, draft gateway.OrderDraft) (gateway.Order, error) {
	f.mu.Lock()
	f.orders = append(f.orders, draft)
	n := len(f.orders)
	f.mu.Unlock()

	for _, l := range draft.Items {
		_ = f.RemoveItem(ctx, l.ProductID)
	}
	return gateway.Order{ID: uint(n), OrderNumber: fmt.Sprintf("ORD-20261018-%08d", n), Items: draft.Items}, nil
}

func (f *fakeAPI) Invoice(_ context.Context, id string) ([]byte, error) {
	return []byte("%PDF " + id), nil
}

func (f *fakeAPI) Login(_ context.Context, req gateway.LoginRequest) (gateway.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[req.Login]
	if !ok || req.Password != "secret" {
		return gateway.AuthResult{}, &gateway.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	f.logins = append(f.logins, f.creds.GuestToken())
	return gateway.AuthResult{Token: "jwt-" + strconv.Itoa(int(u.ID)), User: u}, nil
}

func (f *fakeAPI) Register(_ context.Context, req gateway.RegisterRequest) (gateway.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := gateway.User{ID: uint(100 + len(f.users)), Name: req.Name, Phone: req.Phone}
	f.users[req.Phone] = u
	return gateway.AuthResult{Token: "jwt-new", User: u}, nil
}

func (f *fakeAPI) Logout(context.Context) error { return nil }

func (f *fakeAPI) Me(context.Context) (gateway.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meStatus != 0 {
		return gateway.User{}, &gateway.APIError{Status: f.meStatus}
	}
	return gateway.User{ID: 42, Name: "Dara Updated", Phone: "012345678"}, nil
}

func (f *fakeAPI) Alerts(context.Context) ([]gateway.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.Alert(nil), f.alerts...), nil
}

func (f *fakeAPI) MarkAlertRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for i := range f.alerts {
		if strconv.Itoa(int(f.alerts[i].ID)) == id {
			f.alerts[i].ReadAt = &now
		}
	}
	return nil
}

func (f *fakeAPI) MarkAllAlertsRead(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for i := range f.alerts {
		f.alerts[i].ReadAt = &now
	}
	return nil
}

func newDeps(api *fakeAPI, store kv.Store) Deps {
	return Deps{
		Connect:          api.connect,
		Store:            store,
		Namespace:        "sf",
		Rules:            pricing.DefaultRules(),
		PlaceholderImage: "placeholder.png",
		Log:              logger.Discard(),
	}
}

func openTestSession(t *testing.T) (*Session, *fakeAPI, *kv.Memory) {
	t.Helper()
	api := newFakeAPI()
	store := kv.NewMemory()
	s, err := Open(context.Background(), "s1", newDeps(api, store))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, api, store
}
