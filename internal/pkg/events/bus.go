// Package events is a small in-process publish/subscribe bus with named topics.
// Handlers run synchronously on the publishing goroutine, after the mutation that
// triggered the publish has completed. There is no buffering and no redelivery.
package events

import (
	"sort"
	"sync"
)

// Topic names a broadcast event
type Topic string

const (
	CartChanged     Topic = "cart:changed"
	WishlistChanged Topic = "wishlist:changed"
	AuthChanged     Topic = "auth:changed"
)

// Event is delivered to subscribers
type Event struct {
	Topic   Topic
	Payload any
}

// Handler receives published events
type Handler func(Event)

// Publisher is the write side handed to components that announce changes
type Publisher interface {
	Publish(topic Topic, payload any)
}

// Bus fans events out to subscribers of a topic
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic]map[uint64]Handler
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[uint64]Handler)}
}

// Subscribe registers h for topic and returns a function that removes it
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]Handler)
	}
	b.subs[topic][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
		})
	}
}

// Publish delivers the event to every current subscriber, in subscription order.
// The subscriber list is copied first so handlers may subscribe or publish.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	ids := make([]uint64, 0, len(b.subs[topic]))
	for id := range b.subs[topic] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.subs[topic][id])
	}
	b.mu.RUnlock()

	evt := Event{Topic: topic, Payload: payload}
	for _, h := range handlers {
		h(evt)
	}
}

// Subscribers reports how many handlers are registered for topic
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Nop discards published events
type Nop struct{}

// Publish implements Publisher
func (Nop) Publish(Topic, any) {}
