package bolt_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/store"
	"github.com/kode4food/tremor/store/bolt"
	"github.com/kode4food/tremor/store/storetest"
)

func openArchive(t *testing.T) *bolt.Archive {
	t.Helper()
	a, err := bolt.Open(filepath.Join(t.TempDir(), "tremor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestArchiveContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Archive {
		return openArchive(t)
	})
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tremor.db")
	ctx := context.Background()

	a, err := bolt.Open(path)
	require.NoError(t, err)
	require.NoError(t, a.Put(ctx, "jma", storetest.Record()))
	require.NoError(t, a.Close())

	a, err = bolt.Open(path)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	got, err := a.Get(ctx, "jma")
	require.NoError(t, err)
	storetest.AssertRecord(t, storetest.Record(), got)
}

func TestWindow(t *testing.T) {
	a := openArchive(t)
	ctx := context.Background()
	rec := storetest.Record()
	require.NoError(t, a.Put(ctx, "jma", rec))
	base := rec.Events[0].Timestamp

	ids := func(from, to time.Time) []tremor.EventID {
		evs, err := a.Window(ctx, "jma", from, to)
		require.NoError(t, err)
		res := []tremor.EventID{}
		for _, ev := range evs {
			res = append(res, ev.ID)
		}
		return res
	}

	assert.Equal(t, []tremor.EventID{3, 11}, ids(base, base.Add(30*time.Minute)))
	assert.Equal(t, []tremor.EventID{12}, ids(base.Add(-time.Nanosecond), base))
	assert.Equal(t, []tremor.EventID{12, 3, 11, 4},
		ids(rec.Extent.Start, rec.Extent.End),
	)
	assert.Equal(t, []tremor.EventID{}, ids(base, base))

	_, err := a.Window(ctx, "missing", base, base.Add(time.Hour))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPreEpochOrdering(t *testing.T) {
	a := openArchive(t)
	ctx := context.Background()
	at := func(y int) time.Time {
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	rec := &store.Record{
		Extent: tremor.NewExtent(at(1920), at(2000)),
		Events: []tremor.Event{
			{ID: 1, Timestamp: at(1923)},
			{ID: 2, Timestamp: at(1995)},
		},
	}
	require.NoError(t, a.Put(ctx, "historic", rec))

	got, err := a.Get(ctx, "historic")
	require.NoError(t, err)
	storetest.AssertRecord(t, rec, got)
}
