package order

import (
	"context"
	"regexp"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pharmacy-storefront/internal/domain/cart"
	"github.com/your-org/pharmacy-storefront/internal/storefront/pricing"
)

type savedAddress struct {
	userID  uint
	address string
}

type fakeProfiles struct {
	saved []savedAddress
}

func (f *fakeProfiles) SaveDefaultAddress(_ context.Context, userID uint, address, _, _ string) error {
	f.saved = append(f.saved, savedAddress{userID: userID, address: address})
	return nil
}

type fakeNotifier struct {
	titles map[uint][]string
}

func (f *fakeNotifier) Notify(_ context.Context, userID uint, _, title, _ string) error {
	f.titles[userID] = append(f.titles[userID], title)
	return nil
}

type fixture struct {
	svc      *Service
	carts    *cart.Service
	profiles *fakeProfiles
	notifier *fakeNotifier
}

func newFixture() fixture {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	carts := cart.NewService(cart.NewMemoryRepository(), cart.NewMemoryRepository(), log)
	profiles := &fakeProfiles{}
	notifier := &fakeNotifier{titles: map[uint][]string{}}
	return fixture{
		svc:      NewService(NewMemoryRepository(), carts, profiles, notifier, pricing.DefaultRules(), log),
		carts:    carts,
		profiles: profiles,
		notifier: notifier,
	}
}

func validRequest(items ...LineRequest) *CreateOrderRequest {
	return &CreateOrderRequest{
		Customer: CustomerRequest{Customer: Customer{
			FullName: "Dara",
			Phone:    "012345678",
			Address:  "St 271",
		}},
		Items: items,
	}
}

func TestCreateOrder_UsesCartPricesAndPrunesCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := cart.Owner{GuestToken: "guest_1"}

	for _, id := range []string{"a", "b"} {
		_, err := f.carts.AddItem(ctx, owner, &cart.AddItemRequest{ProductID: id, Name: id, PriceUSD: 2, Quantity: 1})
		require.NoError(t, err)
	}

	o, err := f.svc.CreateOrder(ctx, owner, validRequest(LineRequest{ProductID: "a", Name: "a", PriceUSD: 0.01, Quantity: 3}))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{8}$`), o.OrderNumber)
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, pricing.MethodCOD, o.PaymentMethod)
	assert.InDelta(t, 6.0, o.SubtotalUSD, 1e-9, "cart price wins over submitted price")
	assert.InDelta(t, 24600.0, o.TotalKHR, 1e-9)
	assert.Nil(t, o.UserID)

	remaining, err := f.carts.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, remaining.Items, 1)
	assert.Equal(t, "b", remaining.Items[0].ProductID)

	got, err := f.svc.GetOrder(ctx, owner, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, cart.Owner{GuestToken: "someone-else"}, "1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCreateOrder_MergesDuplicateLines(t *testing.T) {
	f := newFixture()
	o, err := f.svc.CreateOrder(context.Background(), cart.Owner{UserID: 3}, validRequest(
		LineRequest{ProductID: "x", PriceUSD: 1, Quantity: 1},
		LineRequest{ProductID: "x", PriceUSD: 1, Quantity: 2},
	))
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	require.NotNil(t, o.UserID)
	assert.Equal(t, uint(3), *o.UserID)
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := cart.Owner{GuestToken: "g"}

	_, err := f.svc.CreateOrder(ctx, owner, validRequest())
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = f.svc.CreateOrder(ctx, owner, validRequest(LineRequest{ProductID: " ", Quantity: 1}))
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = f.svc.CreateOrder(ctx, owner, validRequest(LineRequest{ProductID: "a", Quantity: 0}))
	assert.ErrorIs(t, err, ErrInvalidLine)

	req := validRequest(LineRequest{ProductID: "a", PriceUSD: 1, Quantity: 1})
	req.Customer.Address = ""
	_, err = f.svc.CreateOrder(ctx, owner, req)
	assert.ErrorIs(t, err, ErrIncompleteCustomer)

	req = validRequest(LineRequest{ProductID: "a", PriceUSD: 1, Quantity: 1})
	req.PaymentMethod = "bitcoin"
	_, err = f.svc.CreateOrder(ctx, owner, req)
	assert.ErrorIs(t, err, ErrUnknownPaymentMethod)

	_, err = f.svc.CreateOrder(ctx, owner, validRequest(LineRequest{ProductID: "a", PriceUSD: 0.1, Quantity: 1}))
	assert.ErrorIs(t, err, ErrBelowMinimum, "410 KHR is below the 1000 KHR minimum")
}

func TestCreateOrder_SavesDefaultAddressForUsers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := validRequest(LineRequest{ProductID: "a", PriceUSD: 1, Quantity: 1})
	req.Customer.SaveDefault = true
	_, err := f.svc.CreateOrder(ctx, cart.Owner{UserID: 8}, req)
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(ctx, cart.Owner{GuestToken: "g"}, req)
	require.NoError(t, err)

	assert.Equal(t, []savedAddress{{userID: 8, address: "St 271"}}, f.profiles.saved)
	assert.Equal(t, map[uint][]string{8: {"Order placed"}}, f.notifier.titles, "guests get no alerts")
}

func TestGetOrders_NewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := cart.Owner{UserID: 1}

	first, err := f.svc.CreateOrder(ctx, owner, validRequest(LineRequest{ProductID: "a", PriceUSD: 1, Quantity: 1}))
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, owner, validRequest(LineRequest{ProductID: "b", PriceUSD: 1, Quantity: 1}))
	require.NoError(t, err)

	orders, err := f.svc.GetOrders(ctx, owner)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	none, err := f.svc.GetOrders(ctx, cart.Owner{UserID: 2})
	require.NoError(t, err)
	assert.Empty(t, none)
}
