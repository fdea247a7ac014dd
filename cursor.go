package tremor

import "time"

type (
	// Motion tags how the cursor reaches a new instant. An Advance trusts the
	// scan pointer, a Seek rebuilds it
	Motion int

	// Cursor extracts the events inside the moving window (t - step, t] from
	// a Catalog. During monotonic playback it walks a scan pointer forward so
	// that each step only touches the events it reports
	Cursor struct {
		catalog *Catalog
		current time.Time
		pointer int
	}
)

const (
	// Advance moves forward from the current instant, reusing the pointer
	Advance Motion = iota

	// Seek jumps to any instant, recomputing the pointer from scratch
	Seek
)

// NewCursor returns a Cursor positioned before the first event
func NewCursor(c *Catalog) *Cursor {
	return &Cursor{
		catalog: c,
		current: c.Extent().Start,
	}
}

// Move repositions the cursor at target using the given motion and returns
// the events whose timestamps fall in (target - step, target], in timestamp
// order. An Advance to an earlier instant than the current one is performed
// as a Seek, since the pointer cannot walk backward
func (c *Cursor) Move(m Motion, target time.Time, step time.Duration) []*Event {
	if m == Seek || target.Before(c.current) {
		c.pointer = c.catalog.Search(target.Add(-step))
	}
	return c.scan(target, step)
}

// Advance moves forward to target, reusing the scan pointer
func (c *Cursor) Advance(target time.Time, step time.Duration) []*Event {
	return c.Move(Advance, target, step)
}

// Seek moves to target from anywhere, recomputing the scan pointer
func (c *Cursor) Seek(target time.Time, step time.Duration) []*Event {
	return c.Move(Seek, target, step)
}

// Now returns the instant of the last move
func (c *Cursor) Now() time.Time {
	return c.current
}

// Pointer returns the index of the first event after the last move's
// instant. Every event before it has a timestamp at or before Now
func (c *Cursor) Pointer() int {
	return c.pointer
}

func (c *Cursor) scan(target time.Time, step time.Duration) []*Event {
	windowStart := target.Add(-step)
	res := []*Event{}
	for c.pointer < c.catalog.Len() {
		ev := c.catalog.At(c.pointer)
		if ev.Timestamp.After(target) {
			break
		}
		if ev.Timestamp.After(windowStart) {
			res = append(res, ev)
		}
		c.pointer++
	}
	c.current = target
	return res
}

func (m Motion) String() string {
	switch m {
	case Advance:
		return "advance"
	case Seek:
		return "seek"
	default:
		return "unknown"
	}
}
