package store

import (
	"github.com/rlibre/x4grid/record"
)

// EventKind classifies a change notification.
type EventKind uint8

const (
	// EventCreate reports an appended record.
	EventCreate EventKind = iota + 1
	// EventUpdate reports a value-only change to an existing record.
	EventUpdate
	// EventDelete reports a removed record.
	EventDelete
	// EventReset reports a wholesale replacement of the record set.
	EventReset
	// EventFilter reports a view's filter change.
	EventFilter
	// EventSort reports a view's sort change.
	EventSort
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventUpdate:
		return "update"
	case EventDelete:
		return "delete"
	case EventReset:
		return "reset"
	case EventFilter:
		return "filter"
	case EventSort:
		return "sort"
	default:
		return "unknown"
	}
}

// Structural reports whether the change can alter membership or count.
func (k EventKind) Structural() bool {
	return k == EventCreate || k == EventDelete || k == EventReset
}

// Event is a change notification.
//
// For record events ID is the affected id and Position its index in the
// emitter's ordering (after the change, or before it for deletes). Reset,
// Filter and Sort carry a null ID and Position NotFound.
type Event struct {
	Kind     EventKind
	ID       record.Value
	Position int
}
