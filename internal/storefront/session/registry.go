package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Registry caches open sessions. Evicted sessions are closed and rebuilt from
// storage on their next request.
type Registry struct {
	deps    Deps
	cache   *expirable.LRU[string, *Session]
	opening singleflight.Group
}

// NewRegistry holds at most size sessions, each for at most ttl after it opened
func NewRegistry(deps Deps, size int, ttl time.Duration) *Registry {
	return &Registry{
		deps: deps,
		cache: expirable.NewLRU[string, *Session](size, func(_ string, s *Session) {
			s.Close()
		}, ttl),
	}
}

// Get returns the session for id, opening it when not cached. An empty id
// opens a new session under a fresh identifier. Concurrent requests for the
// same uncached id share one open; other ids are never held up by it.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = NewID()
	}
	if s, ok := r.cache.Get(id); ok {
		return s, nil
	}

	v, err, _ := r.opening.Do(id, func() (any, error) {
		if s, ok := r.cache.Get(id); ok {
			return s, nil
		}
		s, err := Open(ctx, id, r.deps)
		if err != nil {
			return nil, err
		}
		r.cache.Add(id, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Len is the number of cached sessions
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Purge closes and drops every cached session
func (r *Registry) Purge() {
	r.cache.Purge()
}
