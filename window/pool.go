package window

import (
	"container/list"

	"github.com/rlibre/x4grid/record"
)

// slot is an item plus the binding the renderer tracks for it.
type slot struct {
	item  Item
	key   string
	id    record.Value
	index int
	shown bool
}

// recyclePool keeps unused slots. Keyed lookups find a slot still bound to
// a record id; generic takes return the least recently pooled slot.
type recyclePool struct {
	order *list.List // front = most recently pooled
	byKey map[string]*list.Element
}

func newRecyclePool() *recyclePool {
	return &recyclePool{
		order: list.New(),
		byKey: make(map[string]*list.Element),
	}
}

func (p *recyclePool) len() int { return p.order.Len() }

func (p *recyclePool) put(s *slot) {
	el := p.order.PushFront(s)
	if s.key != "" {
		p.byKey[s.key] = el
	}
}

// takeKey removes and returns the slot bound to key.
func (p *recyclePool) takeKey(key string) (*slot, bool) {
	el, ok := p.byKey[key]
	if !ok {
		return nil, false
	}
	delete(p.byKey, key)
	return p.order.Remove(el).(*slot), true
}

// take removes and returns the least recently pooled slot.
func (p *recyclePool) take() (*slot, bool) {
	el := p.order.Back()
	if el == nil {
		return nil, false
	}
	s := p.order.Remove(el).(*slot)
	if s.key != "" && p.byKey[s.key] == el {
		delete(p.byKey, s.key)
	}
	return s, true
}

// each calls fn for every pooled slot, most recent first.
func (p *recyclePool) each(fn func(*slot)) {
	for el := p.order.Front(); el != nil; el = el.Next() {
		fn(el.Value.(*slot))
	}
}

// drain empties the pool, calling fn for every slot.
func (p *recyclePool) drain(fn func(*slot)) {
	for {
		s, ok := p.take()
		if !ok {
			return
		}
		fn(s)
	}
}
