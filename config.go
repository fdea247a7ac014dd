package tremor

import (
	"time"

	"go.uber.org/zap"
)

type (
	// Config holds playback settings. A valid Extent replaces the extent of
	// the catalog being played; a zero Extent keeps the catalog's own
	Config struct {
		Logger       *zap.Logger
		Extent       Extent
		Steps        []time.Duration
		Step         time.Duration
		TickInterval time.Duration
	}
)

const (
	DefaultStep         = 72 * time.Hour
	DefaultTickInterval = 50 * time.Millisecond
	DefaultCacheSize    = 16

	// MinStep is the smallest window accepted when no presets are configured
	MinStep = time.Minute
)

// JST is the zone the JMA catalog reports in
var JST = time.FixedZone("JST", 9*60*60)

// DefaultSteps are the selectable playback speeds
var DefaultSteps = []time.Duration{
	time.Hour,
	6 * time.Hour,
	24 * time.Hour,
	72 * time.Hour,
	7 * 24 * time.Hour,
	30 * 24 * time.Hour,
}

func DefaultConfig() Config {
	steps := make([]time.Duration, len(DefaultSteps))
	copy(steps, DefaultSteps)
	return Config{
		Logger:       zap.NewNop(),
		Extent:       DefaultExtent(),
		Steps:        steps,
		Step:         DefaultStep,
		TickInterval: DefaultTickInterval,
	}
}

// DefaultExtent spans 2006-01-01 00:00:00 to 2026-01-31 23:59:59 JST
func DefaultExtent() Extent {
	return Extent{
		Start: time.Date(2006, time.January, 1, 0, 0, 0, 0, JST),
		End:   time.Date(2026, time.January, 31, 23, 59, 59, 0, JST),
	}
}

// ClampStep limits a requested step to a usable window. Non-positive steps
// become the smallest preset (or MinStep) and steps longer than the extent
// are cut to the extent. When presets exist the result snaps to the nearest
// one that fits within the extent, or the smallest when none fits
func (c Config) ClampStep(step time.Duration, extent Extent) time.Duration {
	lo, hi := MinStep, extent.Duration()
	if len(c.Steps) > 0 {
		lo = c.Steps[0]
		for _, s := range c.Steps {
			lo = min(lo, s)
		}
	}
	if step <= 0 {
		step = lo
	}
	if hi > 0 && step > hi {
		step = hi
	}
	if len(c.Steps) == 0 {
		return max(step, min(MinStep, hi))
	}
	return nearestStep(fittingSteps(c.Steps, hi, lo), step)
}

func fittingSteps(
	steps []time.Duration, hi, lo time.Duration,
) []time.Duration {
	if hi <= 0 {
		return steps
	}
	res := make([]time.Duration, 0, len(steps))
	for _, s := range steps {
		if s <= hi {
			res = append(res, s)
		}
	}
	if len(res) == 0 {
		return []time.Duration{lo}
	}
	return res
}

func nearestStep(steps []time.Duration, step time.Duration) time.Duration {
	best := steps[0]
	for _, s := range steps[1:] {
		if absDuration(s-step) < absDuration(best-step) {
			best = s
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// PlaybackCatalog returns cat played across the configured Extent, or cat
// itself when no valid Extent is configured
func (c Config) PlaybackCatalog(cat *Catalog) *Catalog {
	if !c.Extent.Valid() {
		return cat
	}
	res, err := cat.WithExtent(c.Extent)
	if err != nil {
		return cat
	}
	return res
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c Config) tickInterval() time.Duration {
	if c.TickInterval <= 0 {
		return DefaultTickInterval
	}
	return c.TickInterval
}
