// Package notify provides typed publish/subscribe hubs.
//
// A Hub delivers events synchronously, in subscription order, on the
// publisher's goroutine. Subscribing returns a Subscription handle whose
// Unsubscribe detaches the handler.
package notify

import "sync"

// Handler receives published events.
type Handler[E any] func(E)

type entry[E any] struct {
	id uint64
	fn Handler[E]
}

// Hub is a typed event channel. The zero value is ready to use.
type Hub[E any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []entry[E]
}

// Subscribe registers fn. A nil fn returns an inert subscription.
func (h *Hub[E]) Subscribe(fn Handler[E]) *Subscription {
	if fn == nil {
		return &Subscription{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, entry[E]{id: id, fn: fn})

	return &Subscription{cancel: func() bool { return h.remove(id) }}
}

// Publish delivers e to every handler registered at the time of the call.
//
// Handlers may subscribe or unsubscribe while being called; such changes
// take effect from the next Publish.
func (h *Hub[E]) Publish(e E) {
	h.mu.Lock()
	if len(h.subs) == 0 {
		h.mu.Unlock()
		return
	}
	subs := make([]entry[E], len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}

// Len returns the number of active subscriptions.
func (h *Hub[E]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Clear removes every subscription.
func (h *Hub[E]) Clear() {
	h.mu.Lock()
	h.subs = nil
	h.mu.Unlock()
}

func (h *Hub[E]) remove(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Subscription is the handle returned by Hub.Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func() bool
}

// Unsubscribe detaches the handler. It reports whether this call removed
// it; later calls are no-ops returning false.
func (s *Subscription) Unsubscribe() bool {
	if s == nil {
		return false
	}
	removed := false
	s.once.Do(func() {
		if s.cancel != nil {
			removed = s.cancel()
		}
	})
	return removed
}
