package tremor_test

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/tremor"
)

func TestCursorAdvance(t *testing.T) {
	c := newCatalog(t, minuteExtent(0, 60), 10, 20, 30, 45)
	cur := tremor.NewCursor(c)
	step := 15 * time.Minute

	assert.Equal(t, []int{10}, offsets(cur.Advance(minutes(15), step)))
	assert.Equal(t, []int{20, 30}, offsets(cur.Advance(minutes(30), step)))
	assert.Equal(t, []int{45}, offsets(cur.Advance(minutes(45), step)))
	assert.Empty(t, cur.Advance(minutes(60), step))
	assert.Equal(t, 4, cur.Pointer())
	assert.Equal(t, minutes(60), cur.Now())
}

func TestCursorSeek(t *testing.T) {
	c := newCatalog(t, minuteExtent(0, 60), 10, 20, 30, 45)
	cur := tremor.NewCursor(c)
	step := 15 * time.Minute

	cur.Advance(minutes(60), step)
	assert.Equal(t, []int{20, 30}, offsets(cur.Seek(minutes(30), step)))
	assert.Equal(t, 3, cur.Pointer())

	assert.Equal(t, []int{10}, offsets(cur.Seek(minutes(10), step)))
	assert.Equal(t, 1, cur.Pointer())
}

func TestCursorSeekExcludesWindowStart(t *testing.T) {
	c := newCatalog(t, minuteExtent(0, 60), 15, 30)
	cur := tremor.NewCursor(c)

	res := cur.Seek(minutes(30), 15*time.Minute)
	assert.Equal(t, []int{30}, offsets(res))
}

func TestCursorBackwardAdvanceSeeks(t *testing.T) {
	c := newCatalog(t, minuteExtent(0, 60), 10, 20, 30, 45)
	cur := tremor.NewCursor(c)
	step := 15 * time.Minute

	cur.Advance(minutes(60), step)
	res := cur.Move(tremor.Advance, minutes(30), step)
	assert.Equal(t, []int{20, 30}, offsets(res))
}

func TestCursorMatchesFilter(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	at := make([]int, 500)
	for i := range at {
		at[i] = rng.Intn(10_000)
	}
	sort.Ints(at)

	c := newCatalog(t, minuteExtent(0, 10_000), at...)
	cur := tremor.NewCursor(c)

	for range 200 {
		target := minutes(rng.Intn(10_000))
		step := time.Duration(1+rng.Intn(500)) * time.Minute
		got := cur.Seek(target, step)
		want := c.Between(target.Add(-step), target)
		assert.Equal(t, offsets(want), offsets(got))
	}
}

func TestCursorExactlyOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	at := make([]int, 300)
	for i := range at {
		at[i] = rng.Intn(1_001)
	}
	sort.Ints(at)

	extent := minuteExtent(0, 1_000)
	c := newCatalog(t, extent, at...)
	cur := tremor.NewCursor(c)
	step := 7 * time.Minute

	seen := map[tremor.EventID]int{}
	record := func(evs []*tremor.Event) {
		for _, ev := range evs {
			seen[ev.ID]++
		}
	}

	now := extent.Start
	record(cur.Seek(now, step))
	for now.Before(extent.End) {
		now = extent.Clamp(now.Add(step))
		record(cur.Advance(now, step))
	}

	assert.Len(t, seen, c.Len())
	for id, count := range seen {
		assert.Equal(t, 1, count, "event %d", id)
	}
}

func TestMotionString(t *testing.T) {
	assert.Equal(t, "advance", tremor.Advance.String())
	assert.Equal(t, "seek", tremor.Seek.String())
	assert.Equal(t, "unknown", tremor.Motion(9).String())
}
