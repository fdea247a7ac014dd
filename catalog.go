package tremor

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Catalog is the immutable, time-sorted sequence of events that playback runs
// over, together with the fixed playback extent. A Catalog is never mutated
// after construction and may be shared freely between goroutines
type Catalog struct {
	extent Extent
	events []*Event
	byID   map[EventID]int
}

var (
	// ErrInvalidExtent indicates the extent does not end after it starts
	ErrInvalidExtent = errors.New("extent must end after it starts")

	// ErrCatalogUnsorted indicates events were not ordered by timestamp
	ErrCatalogUnsorted = errors.New("catalog events not sorted by timestamp")

	// ErrDuplicateEventID indicates two events share an ID
	ErrDuplicateEventID = errors.New("duplicate event id")
)

// NewCatalog builds a Catalog from events that are already sorted ascending
// by timestamp. The events are copied. Ordering and ID uniqueness are checked
// rather than trusted
func NewCatalog(events []Event, extent Extent) (*Catalog, error) {
	if !extent.Valid() {
		return nil, ErrInvalidExtent
	}

	res := &Catalog{
		extent: extent,
		events: make([]*Event, len(events)),
		byID:   make(map[EventID]int, len(events)),
	}

	for i := range events {
		ev := events[i]
		if i > 0 && ev.Timestamp.Before(events[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: event %d at index %d",
				ErrCatalogUnsorted, ev.ID, i,
			)
		}
		if _, ok := res.byID[ev.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateEventID, ev.ID)
		}
		res.byID[ev.ID] = i
		res.events[i] = &ev
	}
	return res, nil
}

// Extent returns the fixed playback extent
func (c *Catalog) Extent() Extent {
	return c.extent
}

// WithExtent returns a Catalog over the same events played across a
// different extent. The events are shared, not copied
func (c *Catalog) WithExtent(extent Extent) (*Catalog, error) {
	if !extent.Valid() {
		return nil, ErrInvalidExtent
	}
	if extent.Equal(c.extent) {
		return c, nil
	}
	return &Catalog{
		extent: extent,
		events: c.events,
		byID:   c.byID,
	}, nil
}

// Len returns the number of events
func (c *Catalog) Len() int {
	return len(c.events)
}

// At returns the event at index i. The returned Event must not be modified
func (c *Catalog) At(i int) *Event {
	return c.events[i]
}

// Events returns a copy of all events in timestamp order
func (c *Catalog) Events() []Event {
	res := make([]Event, len(c.events))
	for i, ev := range c.events {
		res[i] = *ev
	}
	return res
}

// Lookup returns the event with the given ID
func (c *Catalog) Lookup(id EventID) (*Event, bool) {
	if i, ok := c.byID[id]; ok {
		return c.events[i], true
	}
	return nil, false
}

// Search returns the index of the first event whose timestamp is at or after
// t, or Len() if there is none
func (c *Catalog) Search(t time.Time) int {
	return sort.Search(len(c.events), func(i int) bool {
		return !c.events[i].Timestamp.Before(t)
	})
}

// Between returns the events in the half-open window (from, to] by filtering
// the whole catalog. It is the reference the Cursor's incremental scan must
// agree with
func (c *Catalog) Between(from, to time.Time) []*Event {
	res := []*Event{}
	for _, ev := range c.events {
		if ev.Timestamp.After(from) && !ev.Timestamp.After(to) {
			res = append(res, ev)
		}
	}
	return res
}
