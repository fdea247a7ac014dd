package tremor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/tremor"
)

type recorder struct {
	frames  []*tremor.Frame
	clears  int
	pauses  int
	resumes int
}

var epoch = time.Unix(0, 0).UTC()

func (r *recorder) Tick(f *tremor.Frame) { r.frames = append(r.frames, f) }
func (r *recorder) Clear()               { r.clears++ }
func (r *recorder) PauseTransitions()    { r.pauses++ }
func (r *recorder) ResumeTransitions()   { r.resumes++ }

func (r *recorder) last() *tremor.Frame {
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

func minutes(m int) time.Time {
	return epoch.Add(time.Duration(m) * time.Minute)
}

func minuteExtent(from, to int) tremor.Extent {
	return tremor.NewExtent(minutes(from), minutes(to))
}

// newCatalog builds a catalog with one event per minute offset, IDs
// assigned in order
func newCatalog(t *testing.T, extent tremor.Extent, at ...int) *tremor.Catalog {
	t.Helper()
	evs := make([]tremor.Event, len(at))
	for i, m := range at {
		evs[i] = tremor.Event{
			ID:        tremor.EventID(i),
			Timestamp: minutes(m),
			Magnitude: 3.0,
		}
	}
	c, err := tremor.NewCatalog(evs, extent)
	assert.NoError(t, err)
	return c
}

func minuteConfig(step int) tremor.Config {
	cfg := tremor.DefaultConfig()
	cfg.Extent = tremor.Extent{}
	cfg.Steps = nil
	cfg.Step = time.Duration(step) * time.Minute
	return cfg
}

// offsets converts events back into minute offsets for readable asserts
func offsets(evs []*tremor.Event) []int {
	res := make([]int, len(evs))
	for i, ev := range evs {
		res[i] = int(ev.Timestamp.Sub(epoch) / time.Minute)
	}
	return res
}
