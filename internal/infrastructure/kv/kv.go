// Package kv is the key-value capability standing in for browser storage.
// The storefront keeps per-session state (guest token, auth snapshot, local
// wishlist) behind it so components can run against Redis or an in-memory fake.
package kv

import (
	"context"
	"strings"
)

// Store is a string key-value store. Get reports found=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Namespaced prefixes every key with prefix and a colon separator.
type Namespaced struct {
	store  Store
	prefix string
}

// Namespace scopes store under prefix. Nested namespaces join with ":".
func Namespace(store Store, parts ...string) *Namespaced {
	prefix := strings.Join(parts, ":")
	if n, ok := store.(*Namespaced); ok {
		return &Namespaced{store: n.store, prefix: n.key(prefix)}
	}
	return &Namespaced{store: store, prefix: prefix}
}

func (n *Namespaced) key(k string) string {
	if n.prefix == "" {
		return k
	}
	return n.prefix + ":" + k
}

// Prefix returns the full key prefix of this namespace
func (n *Namespaced) Prefix() string { return n.prefix }

func (n *Namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.store.Get(ctx, n.key(key))
}

func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.key(key), value)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.key(key))
}
