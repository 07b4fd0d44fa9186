package window

import (
	"iter"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/rlibre/x4grid/notify"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/store"
)

// State is the renderer's measurement state.
type State uint8

const (
	// StateUnmeasured means no sample has reported a positive extent yet.
	StateUnmeasured State = iota
	// StateMeasured means the extent is known but nothing is on screen.
	StateMeasured
	// StateRendering means a window of items is live.
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateUnmeasured:
		return "unmeasured"
	case StateMeasured:
		return "measured"
	case StateRendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// Stats counts item lifecycle operations since construction.
type Stats struct {
	// Created counts Factory.New calls.
	Created int
	// Reused counts keyed reuse: repositioned without rebinding.
	Reused int
	// Rebound counts pooled items reset and bound to another record.
	Rebound int
	// Recycled counts items hidden and returned to the pool.
	Recycled int
	// Destroyed counts Item.Destroy calls.
	Destroyed int
	// Passes counts rebuild passes.
	Passes int
}

// Renderer windows a Sequence through recycled Items.
type Renderer struct {
	seq     Sequence
	factory Factory
	header  Fixed
	footer  Fixed

	state  State
	extent int

	viewport int
	scroll   int
	scrollX  int

	pending        bool
	pendingScroll  int
	pendingScrollX int

	top     int
	visible int

	live []*slot
	pool *recyclePool
	// stale holds keys whose record content changed and must be rebound.
	stale map[string]struct{}

	selected    record.Value
	hasSelected bool

	slack    int
	maxItems int

	logger   *slog.Logger
	warn     *rate.Limiter
	observer Observer
	stats    Stats

	subs   []*notify.Subscription
	closed bool
}

// New creates a renderer over seq.
func New(seq Sequence, factory Factory, opts ...Option) *Renderer {
	o := applyOptions(opts)
	return &Renderer{
		seq:      seq,
		factory:  factory,
		header:   o.header,
		footer:   o.footer,
		pool:     newRecyclePool(),
		stale:    make(map[string]struct{}),
		slack:    o.slack,
		maxItems: o.maxItems,
		logger:   o.logger,
		warn:     rate.NewLimiter(o.logEvery, 1),
		observer: o.observer,
	}
}

// State returns the measurement state.
func (r *Renderer) State() State { return r.state }

// ItemExtent returns the measured item extent, or 0 while unmeasured.
func (r *Renderer) ItemExtent() int { return r.extent }

// TopIndex returns the first visible index.
func (r *Renderer) TopIndex() int { return r.top }

// VisibleCount returns the number of indexes intersecting the viewport:
// whole items plus one for a partial remainder, clamped at the end.
func (r *Renderer) VisibleCount() int { return r.visible }

// ScrollOffset returns the applied vertical scroll offset.
func (r *Renderer) ScrollOffset() int { return r.scroll }

// Live returns the number of live items.
func (r *Renderer) Live() int { return len(r.live) }

// Pooled returns the number of items in the recycle pool.
func (r *Renderer) Pooled() int { return r.pool.len() }

// Stats returns the lifecycle counters.
func (r *Renderer) Stats() Stats { return r.stats }

// Items iterates live items in display order with their sequence index.
func (r *Renderer) Items() iter.Seq2[int, Item] {
	return func(yield func(int, Item) bool) {
		for _, s := range r.live {
			if !yield(s.index, s.item) {
				return
			}
		}
	}
}

// SetViewport sets the viewport extent and rebuilds immediately.
func (r *Renderer) SetViewport(extent int) {
	if extent < 0 {
		extent = 0
	}
	r.viewport = extent
	r.rebuild(false)
}

// ScrollTo schedules a vertical scroll to offset. The rebuild runs on Tick.
func (r *Renderer) ScrollTo(offset int) {
	if !r.pending {
		r.pendingScrollX = r.scrollX
	}
	r.pending = true
	r.pendingScroll = offset
}

// ScrollBy schedules a relative vertical scroll.
func (r *Renderer) ScrollBy(delta int) {
	base := r.scroll
	if r.pending {
		base = r.pendingScroll
	}
	r.ScrollTo(base + delta)
}

// ScrollX schedules a horizontal scroll. Only fixed header and footer
// follow it.
func (r *Renderer) ScrollX(x int) {
	if !r.pending {
		r.pendingScroll = r.scroll
	}
	r.pending = true
	r.pendingScrollX = x
}

// Tick runs the pending scroll rebuild, if any. It reports whether a
// rebuild ran.
func (r *Renderer) Tick() bool {
	if !r.pending || r.closed {
		return false
	}
	r.rebuild(false)
	return true
}

// Refresh rebuilds immediately. A full refresh rebinds every item instead
// of reusing items by key.
func (r *Renderer) Refresh(full bool) {
	r.rebuild(full)
}

// OnChange reacts to a change of the underlying sequence.
func (r *Renderer) OnChange(e store.Event) {
	switch e.Kind {
	case store.EventReset:
		r.rebuild(true)
	case store.EventUpdate:
		if !e.ID.IsNull() {
			r.stale[e.ID.Key()] = struct{}{}
		}
		r.rebuild(false)
	default:
		r.rebuild(false)
	}
}

// Follow subscribes the renderer to n. Close unsubscribes.
func (r *Renderer) Follow(n Notifier) *notify.Subscription {
	sub := n.Subscribe(r.OnChange)
	r.subs = append(r.subs, sub)
	return sub
}

// Close unsubscribes and destroys every live and pooled item.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, sub := range r.subs {
		sub.Unsubscribe()
	}
	r.subs = nil

	destroy := func(s *slot) {
		s.item.Destroy()
		r.stats.Destroyed++
	}
	for _, s := range r.live {
		destroy(s)
	}
	r.live = nil
	r.pool.drain(destroy)
}

func (r *Renderer) applyPending() {
	if !r.pending {
		return
	}
	r.scroll = r.pendingScroll
	r.scrollX = r.pendingScrollX
	r.pending = false
}

func (r *Renderer) clampScroll(count int) {
	maxScroll := 0
	if r.extent > 0 {
		maxScroll = max(0, count*r.extent-r.viewport)
	}
	r.scroll = min(max(r.scroll, 0), maxScroll)
}

// window computes topIndex and the visible count for count items.
func (r *Renderer) window(count int) (top, visible int) {
	if r.extent <= 0 || r.viewport <= 0 || count == 0 {
		return 0, 0
	}
	top = r.scroll / r.extent
	visible = r.viewport / r.extent
	if r.viewport%r.extent > 0 {
		visible++
	}
	if top > count-1 {
		top = count - 1
	}
	return top, min(visible, count-top)
}

// overscan reports whether one more item is needed to cover the viewport
// when the scroll offset is not aligned to the extent.
func (r *Renderer) overscan(count int) int {
	if r.slack == 0 || r.visible == 0 || r.top+r.visible >= count {
		return 0
	}
	if r.scroll%r.extent+r.viewport > r.visible*r.extent {
		return 1
	}
	return 0
}

// measure renders a sample to capture the item extent. It reports whether
// the extent is now known.
func (r *Renderer) measure(count int) bool {
	if count == 0 {
		return false
	}
	id, ok := r.seq.IDAt(0)
	if !ok {
		return false
	}

	s := r.acquire()
	s.key, s.id, s.index = id.Key(), id, 0
	s.item.Bind(0, id)
	if !s.shown {
		s.item.Show()
		s.shown = true
	}
	ext := s.item.Extent()
	r.pool.put(s)

	if ext <= 0 {
		if r.warn.Allow() {
			r.logger.Warn("window: sample item has no extent", "extent", ext)
		}
		return false
	}
	r.extent = ext
	r.state = StateMeasured
	r.logger.Debug("window: measured", "extent", ext)
	return true
}

// acquire returns a generic pooled slot, reset, or a new one.
func (r *Renderer) acquire() *slot {
	if s, ok := r.pool.take(); ok {
		s.item.Reset()
		r.stats.Rebound++
		return s
	}
	r.stats.Created++
	return &slot{item: r.factory.New()}
}

func (r *Renderer) rebuild(full bool) {
	if r.closed {
		return
	}
	start := time.Now()
	created := r.stats.Created
	r.stats.Passes++

	r.applyPending()
	count := r.seq.Count()

	// Live items go back to the pool still shown; whatever this pass does
	// not claim is hidden at the end.
	for _, s := range r.live {
		r.pool.put(s)
	}
	r.live = r.live[:0]

	if r.state == StateUnmeasured && !r.measure(count) {
		r.top, r.visible = 0, 0
		r.finish(full, start, created)
		return
	}

	r.clampScroll(count)
	r.top, r.visible = r.window(count)
	n := r.visible + r.overscan(count)
	if n > r.maxItems {
		if r.warn.Allow() {
			r.logger.Warn("window: pass capped", "want", n, "max", r.maxItems)
		}
		n = r.maxItems
	}

	claimed := make([]*slot, n)
	ids := make([]record.Value, n)
	for i := range n {
		id, ok := r.seq.IDAt(r.top + i)
		if !ok {
			n = i
			break
		}
		ids[i] = id
		key := id.Key()
		if _, stale := r.stale[key]; stale {
			if s, ok := r.pool.takeKey(key); ok {
				s.item.Reset()
				s.item.Bind(r.top+i, id)
				s.index = r.top + i
				r.stats.Rebound++
				claimed[i] = s
			}
			continue
		}
		if full {
			continue
		}
		if s, ok := r.pool.takeKey(key); ok {
			r.stats.Reused++
			claimed[i] = s
		}
	}

	for i := range n {
		s := claimed[i]
		index := r.top + i
		if s == nil {
			s = r.acquire()
			s.key, s.id = ids[i].Key(), ids[i]
			s.item.Bind(index, ids[i])
		}
		s.index = index
		s.item.Reposition(index*r.extent - r.scroll)
		s.item.Restyle(r.isSelected(s.key))
		if !s.shown {
			s.item.Show()
			s.shown = true
		}
		r.live = append(r.live, s)
	}

	if n > 0 {
		r.state = StateRendering
	} else {
		r.state = StateMeasured
	}
	r.finish(full, start, created)
}

func (r *Renderer) finish(full bool, start time.Time, created int) {
	r.pool.each(func(s *slot) {
		if s.shown {
			s.item.Hide()
			s.shown = false
			r.stats.Recycled++
		}
	})
	clear(r.stale)

	if r.header != nil {
		r.header.SetOffset(r.scrollX)
	}
	if r.footer != nil {
		r.footer.SetOffset(r.scrollX)
	}

	d := time.Since(start)
	r.observer.OnRebuild(len(r.live), r.stats.Created-created, d)
	r.logger.Debug("window: rebuild",
		"full", full,
		"top", r.top,
		"visible", r.visible,
		"live", len(r.live),
		"pooled", r.pool.len(),
		"state", r.state.String(),
	)
}
