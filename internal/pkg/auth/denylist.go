package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist remembers revoked token ids until the tokens would have expired
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisDenylist stores revoked token ids as expiring Redis keys
type RedisDenylist struct {
	client redis.UniversalClient
}

func NewRedisDenylist(client redis.UniversalClient) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func denylistKey(tokenID string) string {
	return "auth:revoked:" + tokenID
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistKey(tokenID), 1, ttl).Err()
}

func (d *RedisDenylist) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryDenylist is an in-process Denylist
type MemoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{revoked: make(map[string]time.Time)}
}

func (d *MemoryDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = expiresAt
	return nil
}

func (d *MemoryDenylist) Revoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(d.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
