// Package storetest holds the behavior every store.Archive backend shares,
// run by each backend's own tests
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/store"
)

var base = time.Date(2011, time.March, 11, 14, 46, 18, 0, tremor.JST)

// Record builds a small catalog record including two events that share a
// timestamp
func Record() *store.Record {
	ev := func(id int64, off time.Duration, m float64) tremor.Event {
		return tremor.Event{
			ID:        tremor.EventID(id),
			Timestamp: base.Add(off),
			Location:  "三陸沖",
			Intensity: tremor.Intensity5Lower,
			Latitude:  38.1,
			Longitude: 142.86,
			Magnitude: m,
		}
	}
	return &store.Record{
		Extent: tremor.NewExtent(base.Add(-time.Hour), base.Add(48*time.Hour)),
		Events: []tremor.Event{
			ev(12, 0, 9.0),
			ev(3, 30*time.Minute, 7.4),
			ev(11, 30*time.Minute, 6.1),
			ev(4, 26*time.Hour+500*time.Microsecond, 5.2),
		},
	}
}

// Run exercises the Archive contract against a fresh, empty archive
func Run(t *testing.T, open func(t *testing.T) store.Archive) {
	t.Run("PutGet", func(t *testing.T) {
		a := open(t)
		ctx := context.Background()
		rec := Record()

		require.NoError(t, a.Put(ctx, "jma", rec))
		got, err := a.Get(ctx, "jma")
		require.NoError(t, err)
		AssertRecord(t, rec, got)

		cat, err := got.Catalog()
		require.NoError(t, err)
		assert.Equal(t, len(rec.Events), cat.Len())
	})

	t.Run("Replace", func(t *testing.T) {
		a := open(t)
		ctx := context.Background()
		rec := Record()

		require.NoError(t, a.Put(ctx, "jma", rec))
		smaller := &store.Record{
			Extent: rec.Extent,
			Events: rec.Events[:1],
		}
		require.NoError(t, a.Put(ctx, "jma", smaller))

		got, err := a.Get(ctx, "jma")
		require.NoError(t, err)
		AssertRecord(t, smaller, got)
	})

	t.Run("Empty", func(t *testing.T) {
		a := open(t)
		ctx := context.Background()
		rec := &store.Record{Extent: Record().Extent}

		require.NoError(t, a.Put(ctx, "quiet", rec))
		got, err := a.Get(ctx, "quiet")
		require.NoError(t, err)
		assert.Empty(t, got.Events)
		assert.True(t, rec.Extent.Start.Equal(got.Extent.Start))
	})

	t.Run("NotFound", func(t *testing.T) {
		a := open(t)
		ctx := context.Background()

		_, err := a.Get(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, a.Delete(ctx, "missing"), store.ErrNotFound)
	})

	t.Run("DeleteList", func(t *testing.T) {
		a := open(t)
		ctx := context.Background()

		names, err := a.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		require.NoError(t, a.Put(ctx, "usgs", Record()))
		require.NoError(t, a.Put(ctx, "jma", Record()))
		names, err = a.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"jma", "usgs"}, names)

		require.NoError(t, a.Delete(ctx, "usgs"))
		names, err = a.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"jma"}, names)

		_, err = a.Get(ctx, "usgs")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("InvalidName", func(t *testing.T) {
		a := open(t)
		err := a.Put(context.Background(), "two words", Record())
		assert.ErrorIs(t, err, store.ErrInvalidName)
	})
}

// AssertRecord compares records by instant rather than by time zone
// representation
func AssertRecord(t *testing.T, want, got *store.Record) {
	t.Helper()
	assert.True(t, want.Extent.Start.Equal(got.Extent.Start), "extent start")
	assert.True(t, want.Extent.End.Equal(got.Extent.End), "extent end")
	if !assert.Len(t, got.Events, len(want.Events)) {
		return
	}
	for i := range want.Events {
		w, g := want.Events[i], got.Events[i]
		assert.True(t, w.Timestamp.Equal(g.Timestamp), "event %d time", i)
		w.Timestamp, g.Timestamp = time.Time{}, time.Time{}
		assert.Equal(t, w, g)
	}
}
