package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/your-org/pharmacy-storefront/internal/infrastructure/gateway"
	"github.com/your-org/pharmacy-storefront/internal/pkg/events"
)

func uintKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Login signs the session in. The guest token travels with the request so
// the API can fold the guest cart into the user's.
func (s *Session) Login(ctx context.Context, req gateway.LoginRequest) (gateway.User, error) {
	res, err := s.api.Login(ctx, req)
	if err != nil {
		return gateway.User{}, err
	}
	return s.signIn(ctx, res)
}

// Register creates an account and signs the session in
func (s *Session) Register(ctx context.Context, req gateway.RegisterRequest) (gateway.User, error) {
	res, err := s.api.Register(ctx, req)
	if err != nil {
		return gateway.User{}, err
	}
	return s.signIn(ctx, res)
}

func (s *Session) signIn(ctx context.Context, res gateway.AuthResult) (gateway.User, error) {
	guestList := s.wishlist()
	guestEntries := guestList.List(ctx)

	if err := s.persistIdentity(ctx, res.Token, &res.User); err != nil {
		return gateway.User{}, err
	}
	s.bus.Publish(events.AuthChanged, res.User)

	if len(guestEntries) > 0 && guestList.Key() != s.wishlist().Key() {
		userList := s.wishlist()
		for _, e := range guestEntries {
			if err := userList.Add(ctx, e); err != nil {
				s.log.WithError(err).WithField("product_id", e.ID).Warn("could not carry guest wish over")
			}
		}
		if err := guestList.Reset(ctx); err != nil {
			s.log.WithError(err).Warn("could not clear guest wishlist")
		}
		s.bus.Publish(events.WishlistChanged, nil)
	}

	_ = s.cart.Refresh(ctx)
	return res.User, nil
}

// Logout signs the session out and clears the user's local wishlist. The
// session falls back to its guest identity and guest cart.
func (s *Session) Logout(ctx context.Context) error {
	if !s.Authenticated() {
		return nil
	}
	if err := s.api.Logout(ctx); err != nil {
		s.log.WithError(err).Warn("api logout failed, dropping token anyway")
	}
	if err := s.wishlist().Reset(ctx); err != nil {
		s.log.WithError(err).Warn("could not clear wishlist on logout")
	}
	if err := s.persistIdentity(ctx, "", nil); err != nil {
		return err
	}
	s.bus.Publish(events.AuthChanged, nil)

	_ = s.cart.Refresh(ctx)
	return nil
}

// Me returns the signed-in customer, refreshing the stored snapshot. An
// expired token signs the session out.
func (s *Session) Me(ctx context.Context) (gateway.User, error) {
	if !s.Authenticated() {
		return gateway.User{}, ErrNotAuthenticated
	}
	u, err := s.api.Me(ctx)
	if gateway.StatusOf(err) == http.StatusUnauthorized {
		s.log.Info("token rejected, signing out")
		if err := s.persistIdentity(ctx, "", nil); err != nil {
			return gateway.User{}, err
		}
		s.bus.Publish(events.AuthChanged, nil)
		_ = s.cart.Refresh(ctx)
		return gateway.User{}, ErrNotAuthenticated
	}
	if err != nil {
		return gateway.User{}, err
	}
	if err := s.persistIdentity(ctx, s.BearerToken(), &u); err != nil {
		return gateway.User{}, err
	}
	return u, nil
}

// persistIdentity stores token and user snapshot; an empty token removes both
func (s *Session) persistIdentity(ctx context.Context, token string, u *gateway.User) error {
	if token == "" {
		if err := s.storage.Delete(ctx, keyToken); err != nil {
			return err
		}
		if err := s.storage.Delete(ctx, keyCustomer); err != nil {
			return err
		}
		s.mu.Lock()
		s.token, s.user, s.unread = "", nil, 0
		s.mu.Unlock()
		return nil
	}

	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, keyToken, token); err != nil {
		return err
	}
	if err := s.storage.Set(ctx, keyCustomer, string(raw)); err != nil {
		return err
	}
	snapshot := *u
	s.mu.Lock()
	s.token, s.user = token, &snapshot
	s.mu.Unlock()
	return nil
}
