// Package window implements a virtualized window renderer with a recycle
// pool of presentation objects.
//
// A Renderer shows a contiguous range of a Sequence (a store or a view)
// through Items built by a Factory. Only the items intersecting the viewport
// are live. Items scrolled out of view are hidden and kept in a recycle pool
// rather than destroyed; incremental passes prefer pooled items already
// bound to the same record id, so scrolling by one row rebinds at most one
// item.
//
// The renderer measures the item extent lazily from the first rendered
// sample. Until a sample reports a positive extent it stays Unmeasured and
// performs no windowing math.
//
// Scroll input is coalesced: ScrollTo, ScrollBy and ScrollX only record the
// new offsets, and Tick, called once per host frame, runs at most one
// rebuild. Viewport changes, sequence changes and selection moves rebuild
// immediately.
//
// A Renderer is owned by one goroutine, like the store it renders.
package window
