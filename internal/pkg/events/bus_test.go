package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(WishlistChanged, func(Event) { got = append(got, "header") })
	bus.Subscribe(WishlistChanged, func(Event) { got = append(got, "page") })
	bus.Subscribe(AuthChanged, func(Event) { got = append(got, "auth") })

	bus.Publish(WishlistChanged, nil)

	assert.Equal(t, []string{"header", "page"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(CartChanged, func(Event) { calls++ })

	bus.Publish(CartChanged, nil)
	unsubscribe()
	unsubscribe()
	bus.Publish(CartChanged, nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Subscribers(CartChanged))
}

func TestBus_HandlerMayPublish(t *testing.T) {
	bus := NewBus()
	var seen []Topic

	bus.Subscribe(AuthChanged, func(e Event) {
		seen = append(seen, e.Topic)
		bus.Publish(WishlistChanged, e.Payload)
	})
	bus.Subscribe(WishlistChanged, func(e Event) {
		seen = append(seen, e.Topic)
		assert.Equal(t, "user:7", e.Payload)
	})

	bus.Publish(AuthChanged, "user:7")

	assert.Equal(t, []Topic{AuthChanged, WishlistChanged}, seen)
}
