// Package session is the per-browser storefront runtime. A Session owns one
// cart state manager, one local wishlist store and one event bus, and keeps
// its identity in a key-value namespace that stands in for browser storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/gateway"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/kv"
	"github.com/your-org/pharmacy-storefront/internal/pkg/events"
	"github.com/your-org/pharmacy-storefront/internal/storefront/cartstate"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
	"github.com/your-org/pharmacy-storefront/internal/storefront/pricing"
	"github.com/your-org/pharmacy-storefront/internal/storefront/wishlist"
)

// Storage keys inside a session namespace
const (
	keyGuestToken = "guest_token"
	keyToken      = "token"
	keyCustomer   = "customer"
)

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrCheckoutNotAllowed   = errors.New("checkout not allowed")
	ErrNotInWishlist        = errors.New("product is not in the wishlist")
	ErrIncompleteCustomer   = errors.New("customer name, phone and address are required")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// API is everything a session needs from the pharmacy API
type API interface {
	cartstate.Gateway

	Categories(ctx context.Context) ([]gateway.Category, error)
	Products(ctx context.Context, query gateway.ProductQuery) (gateway.ProductPage, error)
	Product(ctx context.Context, id string) (item.Payload, error)

	PlaceOrder(ctx context.Context, draft gateway.OrderDraft) (gateway.Order, error)
	Invoice(ctx context.Context, id string) ([]byte, error)

	Login(ctx context.Context, req gateway.LoginRequest) (gateway.AuthResult, error)
	Register(ctx context.Context, req gateway.RegisterRequest) (gateway.AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (gateway.User, error)

	Alerts(ctx context.Context) ([]gateway.Alert, error)
	MarkAlertRead(ctx context.Context, id string) error
	MarkAllAlertsRead(ctx context.Context) error
}

// Connector binds the API to a session's credentials
type Connector func(creds gateway.Credentials) API

// Deps are shared by every session of a registry
type Deps struct {
	Connect          Connector
	Store            kv.Store
	Namespace        string
	Rules            pricing.Rules
	PlaceholderImage string
	Log              logrus.FieldLogger
}

// Session is one browser's storefront state
type Session struct {
	id      string
	storage *kv.Namespaced
	api     API
	bus     *events.Bus
	cart    *cartstate.Manager
	rules   pricing.Rules
	log     logrus.FieldLogger

	placeholder string
	revision    atomic.Uint64
	unsubscribe []func()

	mu     sync.RWMutex
	guest  string
	token  string
	user   *gateway.User
	wishes *wishlist.Store
	unread int
}

// NewID returns a fresh session identifier
func NewID() string {
	return uuid.NewString()
}

// Open loads or creates the session stored under id and hydrates its cart.
// A failed cart refresh leaves an empty cart rather than failing the open.
func Open(ctx context.Context, id string, deps Deps) (*Session, error) {
	log := deps.Log.WithField("session", id)
	s := &Session{
		id:          id,
		storage:     kv.Namespace(deps.Store, deps.Namespace, id),
		bus:         events.NewBus(),
		rules:       deps.Rules,
		log:         log,
		placeholder: deps.PlaceholderImage,
	}

	if err := s.loadIdentity(ctx); err != nil {
		return nil, err
	}

	s.api = deps.Connect(s)
	s.cart = cartstate.NewManager(s.api, s.bus, log)
	s.wishes = wishlist.NewStore(s.storage, wishlist.Key(s.userKey()), log)

	s.unsubscribe = append(s.unsubscribe,
		s.bus.Subscribe(events.AuthChanged, s.onAuthChanged),
		s.bus.Subscribe(events.CartChanged, s.bump),
		s.bus.Subscribe(events.WishlistChanged, s.bump),
	)

	_ = s.cart.Refresh(ctx)
	return s, nil
}

func (s *Session) loadIdentity(ctx context.Context) error {
	guest, found, err := s.storage.Get(ctx, keyGuestToken)
	if err != nil {
		return err
	}
	if !found || guest == "" {
		guest = "guest_" + uuid.NewString()
		if err := s.storage.Set(ctx, keyGuestToken, guest); err != nil {
			return err
		}
	}
	s.guest = guest

	token, _, err := s.storage.Get(ctx, keyToken)
	if err != nil {
		return err
	}
	s.token = token

	raw, found, err := s.storage.Get(ctx, keyCustomer)
	if err != nil {
		return err
	}
	if found && raw != "" {
		var u gateway.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.log.WithError(err).Warn("stored customer snapshot corrupt, ignoring")
		} else {
			s.user = &u
		}
	}
	return nil
}

// Close detaches the session's subscriptions
func (s *Session) Close() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Cart exposes the session's cart state manager
func (s *Session) Cart() *cartstate.Manager { return s.cart }

// Bus exposes the session's event bus
func (s *Session) Bus() *events.Bus { return s.bus }

// Revision increases every time the cart or wishlist changes
func (s *Session) Revision() uint64 { return s.revision.Load() }

// BearerToken implements gateway.Credentials
func (s *Session) BearerToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// GuestToken implements gateway.Credentials
func (s *Session) GuestToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guest
}

// User returns the signed-in customer, or nil for guests
func (s *Session) User() *gateway.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether the session holds a bearer token
func (s *Session) Authenticated() bool {
	return s.BearerToken() != ""
}

func (s *Session) userKey() string {
	if s.token == "" || s.user == nil || s.user.ID == 0 {
		return ""
	}
	return uintKey(s.user.ID)
}

func (s *Session) wishlist() *wishlist.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wishes
}

// onAuthChanged points the local wishlist at the current identity's key
func (s *Session) onAuthChanged(events.Event) {
	s.mu.Lock()
	s.wishes = wishlist.NewStore(s.storage, wishlist.Key(s.userKey()), s.log)
	s.mu.Unlock()
	s.bump(events.Event{})
}

func (s *Session) bump(events.Event) {
	s.revision.Add(1)
}

func (s *Session) display(p item.Product) item.Product {
	if p.Image == "" {
		p.Image = s.placeholder
	}
	return p
}
