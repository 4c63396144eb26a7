package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pharmacy-storefront/internal/config"
	"github.com/your-org/pharmacy-storefront/internal/domain/alert"
	"github.com/your-org/pharmacy-storefront/internal/domain/cart"
	"github.com/your-org/pharmacy-storefront/internal/domain/order"
	"github.com/your-org/pharmacy-storefront/internal/domain/user"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/handlers"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/middleware"
	"github.com/your-org/pharmacy-storefront/internal/interfaces/http/routes"
	"github.com/your-org/pharmacy-storefront/internal/pkg/auth"
	"github.com/your-org/pharmacy-storefront/internal/pkg/logger"
	"github.com/your-org/pharmacy-storefront/internal/pkg/pdf"
	"github.com/your-org/pharmacy-storefront/internal/storefront/pricing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	router *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	log := logger.Discard()

	carts := cart.NewService(cart.NewMemoryRepository(), cart.NewMemoryRepository(), log)
	users := user.NewService(
		user.NewMemoryRepository(),
		auth.NewPasswordManager(4),
		auth.NewJWTManager("0123456789abcdef0123456789abcdef", "test", time.Hour),
		auth.NewMemoryDenylist(),
	)
	alerts := alert.NewService(alert.NewMemoryRepository())
	orders := order.NewService(order.NewMemoryRepository(), carts, users, alerts, pricing.DefaultRules(), log)
	receipts := pdf.NewServiceWithConverter(config.CompanyConfig{Name: "Test Pharmacy"}, func(html []byte) ([]byte, error) {
		return append([]byte("%PDF-"), html[:4]...), nil
	})

	router := routes.NewEngine()
	routes.SetupRoutes(router.Group("/api"), routes.Handlers{
		Auth:  handlers.NewAuthHandler(users, carts, log),
		Cart:  handlers.NewCartHandler(carts),
		Order: handlers.NewOrderHandler(orders, receipts),
		Alert: handlers.NewAlertHandler(alerts),
	}, users)
	return &api{router: router}
}

type call struct {
	method, path string
	body         any
	guest, token string
}

func (a *api) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.guest != "" {
		req.Header.Set(middleware.GuestTokenHeader, c.guest)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Data
}

func addItem(id string, qty int) gin.H {
	return gin.H{"product_id": id, "name": "Paracetamol " + id, "price_usd": 1.5, "qty": qty}
}

func TestCart_GuestLifecycle(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, call{method: http.MethodPost, path: "/api/client/cart/items", body: addItem("7", 2), guest: "g1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, call{method: http.MethodPost, path: "/api/client/cart/items", body: addItem("7", 1), guest: "g1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[cart.CartItem](t, w).Quantity)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/cart", guest: "g1"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[cart.CartResponse](t, w)
	require.Len(t, got.Items, 1)
	assert.InDelta(t, 4.5, got.Totals.SubtotalUSD, 0.001)

	// other guests see their own cart
	w = a.do(t, call{method: http.MethodGet, path: "/api/client/cart", guest: "g2"})
	assert.Empty(t, decode[cart.CartResponse](t, w).Items)

	w = a.do(t, call{method: http.MethodPatch, path: "/api/client/cart/items/7", body: gin.H{"qty": 0}, guest: "g1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/cart/count", guest: "g1"})
	assert.Equal(t, 0, decode[map[string]int](t, w)["count"])
}

func TestCart_EscapedProductID(t *testing.T) {
	a := newAPI(t)

	a.do(t, call{method: http.MethodPost, path: "/api/client/cart/items", body: addItem("a/b", 1), guest: "g1"})

	w := a.do(t, call{method: http.MethodPatch, path: "/api/client/cart/items/a%2Fb", body: gin.H{"qty": 4}, guest: "g1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 4, decode[cart.CartItem](t, w).Quantity)

	w = a.do(t, call{method: http.MethodDelete, path: "/api/client/cart/items/a%2Fb", guest: "g1"})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, call{method: http.MethodGet, path: "/api/client/cart", guest: "g1"})
	assert.Empty(t, decode[cart.CartResponse](t, w).Items)
}

func TestCart_Errors(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, call{method: http.MethodGet, path: "/api/client/cart"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, call{method: http.MethodPost, path: "/api/client/cart/items", body: addItem("", 1), guest: "g1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(t, call{method: http.MethodPatch, path: "/api/client/cart/items/missing", body: gin.H{"qty": 2}, guest: "g1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, call{method: http.MethodDelete, path: "/api/client/cart/items/missing", guest: "g1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/cart", token: "not-a-jwt", guest: "g1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func register(t *testing.T, a *api, guest string) user.AuthResponse {
	t.Helper()
	w := a.do(t, call{method: http.MethodPost, path: "/api/client/register", guest: guest, body: gin.H{
		"name": "Dara", "phone": "012 345 678", "password": "panadol-500", "password_confirmation": "panadol-500",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[user.AuthResponse](t, w)
}

func TestAuth_LoginMergesGuestCartAndLogoutRevokes(t *testing.T) {
	a := newAPI(t)
	register(t, a, "")

	w := a.do(t, call{method: http.MethodPost, path: "/api/client/cart/items", body: addItem("9", 2), guest: "g1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, call{method: http.MethodPost, path: "/api/client/login", guest: "g1", body: gin.H{"login": "012345678", "password": "wrong-pass"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, call{method: http.MethodPost, path: "/api/client/login", guest: "g1", body: gin.H{"login": "012345678", "password": "panadol-500"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[user.AuthResponse](t, w).Token

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/cart", token: token})
	items := decode[cart.CartResponse](t, w).Items
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/cart", guest: "g1"})
	assert.Empty(t, decode[cart.CartResponse](t, w).Items)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/me", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dara", decode[user.Profile](t, w).Name)

	w = a.do(t, call{method: http.MethodPost, path: "/api/client/logout", token: token})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/me", token: token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_RegisterConflict(t *testing.T) {
	a := newAPI(t)
	register(t, a, "")

	w := a.do(t, call{method: http.MethodPost, path: "/api/client/register", body: gin.H{
		"name": "Other", "phone": "012345678", "password": "another-1", "password_confirmation": "another-1",
	}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func orderBody(ids ...string) gin.H {
	lines := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, gin.H{"product_id": id, "name": id, "price_usd": 1.5, "qty": 1})
	}
	return gin.H{
		"customer":       gin.H{"full_name": "Dara", "phone": "012345678", "address": "St 271"},
		"payment_method": "aba_qr",
		"items":          lines,
	}
}

func TestOrder_GuestCheckoutAndReceipt(t *testing.T) {
	a := newAPI(t)

	for _, id := range []string{"1", "2"} {
		w := a.do(t, call{method: http.MethodPost, path: "/api/client/cart/items", body: addItem(id, 1), guest: "g1"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := a.do(t, call{method: http.MethodPost, path: "/api/client/orders", body: orderBody("1"), guest: "g1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[order.Order](t, w)
	assert.NotEmpty(t, placed.OrderNumber)
	assert.Equal(t, "aba_qr", placed.PaymentMethod)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/cart", guest: "g1"})
	items := decode[cart.CartResponse](t, w).Items
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ProductID)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/orders/" + placed.OrderNumber, guest: "g1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/orders/" + placed.OrderNumber, guest: "g2"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/orders/" + placed.OrderNumber + "/invoice", guest: "g1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), placed.OrderNumber)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestOrder_Rejections(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, call{method: http.MethodPost, path: "/api/client/orders", body: orderBody(), guest: "g1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := orderBody("1")
	body["payment_method"] = "bitcoin"
	w = a.do(t, call{method: http.MethodPost, path: "/api/client/orders", body: body, guest: "g1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAlerts_OrderPlacedForUser(t *testing.T) {
	a := newAPI(t)
	token := register(t, a, "").Token

	w := a.do(t, call{method: http.MethodGet, path: "/api/client/alerts"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, call{method: http.MethodPost, path: "/api/client/orders", body: orderBody("5"), token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/alerts", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	alerts := decode[[]alert.Alert](t, w)
	require.Len(t, alerts, 1)
	assert.Nil(t, alerts[0].ReadAt)

	w = a.do(t, call{method: http.MethodPost, path: "/api/client/alerts/read-all", token: token})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, call{method: http.MethodGet, path: "/api/client/alerts", token: token})
	assert.NotNil(t, decode[[]alert.Alert](t, w)[0].ReadAt)

	w = a.do(t, call{method: http.MethodPost, path: "/api/client/alerts/999/read", token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuth_RegisterRejectsWeakPassword(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, call{method: http.MethodPost, path: "/api/client/register", body: gin.H{
		"name": "Dara", "phone": "011", "password": "123456", "password_confirmation": "123456",
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
