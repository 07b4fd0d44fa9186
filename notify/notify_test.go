package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubPublishOrder(t *testing.T) {
	var h Hub[int]
	var got []string

	h.Subscribe(func(e int) { got = append(got, "a") })
	h.Subscribe(func(e int) { got = append(got, "b") })
	h.Publish(1)

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 2, h.Len())
}

func TestHubUnsubscribe(t *testing.T) {
	var h Hub[string]
	count := 0

	sub := h.Subscribe(func(string) { count++ })
	h.Publish("x")
	assert.True(t, sub.Unsubscribe())
	assert.False(t, sub.Unsubscribe())
	h.Publish("y")

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, h.Len())
}

func TestHubUnsubscribeDuringPublish(t *testing.T) {
	var h Hub[int]
	var calls []int

	var first *Subscription
	first = h.Subscribe(func(e int) {
		calls = append(calls, e)
		first.Unsubscribe()
	})
	h.Subscribe(func(e int) { calls = append(calls, e*10) })

	h.Publish(1)
	h.Publish(2)

	assert.Equal(t, []int{1, 10, 20}, calls)
}

func TestHubNilHandler(t *testing.T) {
	var h Hub[int]
	sub := h.Subscribe(nil)
	assert.Equal(t, 0, h.Len())
	assert.False(t, sub.Unsubscribe())

	var nilSub *Subscription
	assert.False(t, nilSub.Unsubscribe())
}

func TestHubClear(t *testing.T) {
	var h Hub[int]
	h.Subscribe(func(int) {})
	h.Clear()
	assert.Equal(t, 0, h.Len())
}
