package window

import (
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/store"
)

// Direction is a selection move.
type Direction uint8

const (
	Next Direction = iota
	Prev
	PageNext
	PagePrev
	First
	Last
)

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Prev:
		return "prev"
	case PageNext:
		return "page-next"
	case PagePrev:
		return "page-prev"
	case First:
		return "first"
	case Last:
		return "last"
	default:
		return "unknown"
	}
}

// Selected returns the selected id.
func (r *Renderer) Selected() (record.Value, bool) {
	return r.selected, r.hasSelected
}

// SelectedIndex returns the sequence index of the selection, or
// store.NotFound.
func (r *Renderer) SelectedIndex() int {
	if !r.hasSelected {
		return store.NotFound
	}
	return r.seq.IndexOfID(r.selected)
}

// Select selects id and restyles the live items. It reports whether id is
// part of the sequence; the selection is kept either way.
func (r *Renderer) Select(id record.Value) bool {
	r.selected, r.hasSelected = id, !id.IsNull()
	r.restyle()
	return r.seq.IndexOfID(id) != store.NotFound
}

// ClearSelection drops the selection.
func (r *Renderer) ClearSelection() {
	r.selected, r.hasSelected = record.Value{}, false
	r.restyle()
}

// Move moves the selection and scrolls the target into view. A target
// above the window becomes the first visible item; a target below it
// becomes the last. It returns the newly selected id.
func (r *Renderer) Move(d Direction) (record.Value, bool) {
	count := r.seq.Count()
	if count == 0 {
		return record.Value{}, false
	}
	r.applyPending()
	if r.extent > 0 {
		r.clampScroll(count)
		r.top, r.visible = r.window(count)
	}

	cur := r.SelectedIndex()
	page := 1
	if r.extent > 0 {
		page = max(1, r.viewport/r.extent)
	}

	var target int
	switch d {
	case Next, PageNext:
		step := 1
		if d == PageNext {
			step = page
		}
		if cur == store.NotFound {
			cur = -1
		}
		target = cur + step
	case Prev, PagePrev:
		step := 1
		if d == PagePrev {
			step = page
		}
		if cur == store.NotFound {
			cur = count
		}
		target = cur - step
	case First:
		target = 0
	case Last:
		target = count - 1
	}
	target = min(max(target, 0), count-1)

	id, ok := r.seq.IDAt(target)
	if !ok {
		return record.Value{}, false
	}
	r.selected, r.hasSelected = id, true

	if r.extent > 0 && r.viewport > 0 {
		switch {
		case target < r.top:
			r.scroll = target * r.extent
		case target >= r.top+r.visible:
			r.scroll = max(0, (target+1)*r.extent-r.viewport)
		}
	}
	r.rebuild(false)
	return id, true
}

func (r *Renderer) isSelected(key string) bool {
	return r.hasSelected && key == r.selected.Key()
}

func (r *Renderer) restyle() {
	for _, s := range r.live {
		s.item.Restyle(r.isSelected(s.key))
	}
}
