package tremor

import "time"

// Clock holds the playback instant and step. It keeps the current time
// within the extent at all times
type Clock struct {
	extent  Extent
	current time.Time
	step    time.Duration
}

func newClock(extent Extent, step time.Duration) *Clock {
	return &Clock{
		extent:  extent,
		current: extent.Start,
		step:    step,
	}
}

// Now returns the current instant
func (c *Clock) Now() time.Time {
	return c.current
}

// Step returns the window width and per-tick advance
func (c *Clock) Step() time.Duration {
	return c.step
}

// Extent returns the fixed playback extent
func (c *Clock) Extent() Extent {
	return c.extent
}

// Progress returns how far the current instant lies through the extent
func (c *Clock) Progress() float64 {
	return c.extent.Fraction(c.current)
}

// AtEnd reports whether the clock has reached the end of the extent
func (c *Clock) AtEnd() bool {
	return !c.current.Before(c.extent.End)
}

// next returns the instant one step ahead, limited to the end of the extent
func (c *Clock) next() time.Time {
	return c.extent.Clamp(c.current.Add(c.step))
}

func (c *Clock) set(t time.Time) {
	c.current = c.extent.Clamp(t)
}

func (c *Clock) setStep(step time.Duration) {
	c.step = step
}
