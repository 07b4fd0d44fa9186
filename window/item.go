package window

import (
	"github.com/rlibre/x4grid/notify"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/store"
)

// Sequence is the ordered data a renderer windows over. *store.Store and
// *view.View implement it.
type Sequence interface {
	Count() int
	IDAt(i int) (record.Value, bool)
	IndexOfID(id record.Value) int
}

// Notifier is a change source a renderer can follow.
type Notifier interface {
	Subscribe(fn func(store.Event)) *notify.Subscription
}

// Item is a presentation object.
//
// Bind loads the record at index, identified by key. Reposition moves the
// item to offset along the scroll axis, relative to the viewport start.
// Reset clears bound state before a pooled item is bound to another record.
// Hide marks the item unused; it stays allocated until Destroy.
type Item interface {
	Bind(index int, key record.Value)
	Reposition(offset int)
	Restyle(selected bool)
	Show()
	Hide()
	Reset()
	Extent() int
	Destroy()
}

// Fixed is a header or footer that tracks horizontal scroll only.
type Fixed interface {
	SetOffset(x int)
}

// Factory builds new items.
type Factory interface {
	New() Item
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func() Item

// New calls f.
func (f FactoryFunc) New() Item { return f() }
