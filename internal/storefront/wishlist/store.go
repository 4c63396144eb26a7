// Package wishlist keeps products wished before they reach the cart and merges
// them with cart-backed wishes for display.
package wishlist

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pharmacy-storefront/internal/infrastructure/kv"
	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
)

// Key returns the storage key of a user's local wishlist. Guests share the
// "guest" key within their own session namespace.
func Key(userID string) string {
	if userID == "" {
		return "wishlist:guest"
	}
	return "wishlist:" + userID
}

// Store persists local wishlist entries as one JSON array under a single key.
// Unreadable data is treated as an empty list.
type Store struct {
	mu  sync.Mutex
	kv  kv.Store
	key string
	log logrus.FieldLogger
}

func NewStore(store kv.Store, key string, log logrus.FieldLogger) *Store {
	return &Store{kv: store, key: key, log: log}
}

// Key returns the storage key this store reads and writes
func (s *Store) Key() string { return s.key }

// List returns the stored entries in insertion order
func (s *Store) List(ctx context.Context) []item.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Has reports whether id is stored
func (s *Store) Has(ctx context.Context, id string) bool {
	for _, e := range s.List(ctx) {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Add stores the entry unless one with the same id is present
func (s *Store) Add(ctx context.Context, entry item.Product) error {
	if !entry.Valid() {
		return item.ErrInvalidProduct
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	for _, e := range entries {
		if e.ID == entry.ID {
			return nil
		}
	}
	return s.save(ctx, append(entries, entry.Clone()))
}

// Remove deletes the entry with id; absent ids are ignored
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}
	return s.save(ctx, kept)
}

// Reset replaces the stored list with an empty one
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, nil)
}

func (s *Store) load(ctx context.Context) []item.Product {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.WithError(err).WithField("key", s.key).Warn("wishlist read failed, using empty list")
		return nil
	}
	if !found || raw == "" {
		return nil
	}

	var payloads []item.Payload
	if err := json.Unmarshal([]byte(raw), &payloads); err != nil {
		s.log.WithError(err).WithField("key", s.key).Warn("wishlist data corrupt, using empty list")
		return nil
	}

	entries := make([]item.Product, 0, len(payloads))
	seen := make(map[string]bool, len(payloads))
	for _, p := range payloads {
		e := item.NormalizeProduct(p)
		if !e.Valid() || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		entries = append(entries, e)
	}
	return entries
}

func (s *Store) save(ctx context.Context, entries []item.Product) error {
	if entries == nil {
		entries = []item.Product{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode wishlist: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("write wishlist: %w", err)
	}
	return nil
}
