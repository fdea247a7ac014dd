package store_test

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/store"
	"github.com/kode4food/tremor/store/storetest"
)

type memArchive struct {
	records map[string]*store.Record
	gets    int
}

func newMemArchive() *memArchive {
	return &memArchive{records: map[string]*store.Record{}}
}

func (m *memArchive) Put(_ context.Context, name string, r *store.Record) error {
	if err := store.CheckName(name); err != nil {
		return err
	}
	m.records[name] = r
	return nil
}

func (m *memArchive) Get(_ context.Context, name string) (*store.Record, error) {
	m.gets++
	r, ok := m.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	return r, nil
}

func (m *memArchive) Delete(_ context.Context, name string) error {
	if _, ok := m.records[name]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	delete(m.records, name)
	return nil
}

func (m *memArchive) List(context.Context) ([]string, error) {
	res := make([]string, 0, len(m.records))
	for k := range m.records {
		res = append(res, k)
	}
	sort.Strings(res)
	return res, nil
}

func (m *memArchive) Close() error {
	return nil
}

func TestMemArchiveContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Archive {
		return newMemArchive()
	})
}

func TestRecordCatalog(t *testing.T) {
	rec := storetest.Record()
	cat, err := rec.Catalog()
	require.NoError(t, err)
	assert.Equal(t, 4, cat.Len())

	back := store.FromCatalog(cat)
	storetest.AssertRecord(t, rec, back)

	rec.Events[0], rec.Events[1] = rec.Events[1], rec.Events[0]
	_, err = rec.Catalog()
	assert.ErrorIs(t, err, tremor.ErrCatalogUnsorted)
}

func TestCheckName(t *testing.T) {
	assert.NoError(t, store.CheckName("jma-2006"))
	assert.NoError(t, store.CheckName("気象庁"))
	for _, n := range []string{"", "a b", "tab\there", "nl\n"} {
		assert.ErrorIs(t, store.CheckName(n), store.ErrInvalidName, n)
	}
}

func TestCached(t *testing.T) {
	mem := newMemArchive()
	c := store.NewCached(mem, nil)
	ctx := context.Background()

	_, err := c.Catalog(ctx, "jma")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, c.Put(ctx, "jma", storetest.Record()))
	first, err := c.Catalog(ctx, "jma")
	require.NoError(t, err)
	second, err := c.Catalog(ctx, "jma")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 2, mem.gets)

	smaller := storetest.Record()
	smaller.Events = smaller.Events[:2]
	require.NoError(t, c.Put(ctx, "jma", smaller))
	third, err := c.Catalog(ctx, "jma")
	require.NoError(t, err)
	assert.Equal(t, 2, third.Len())

	require.NoError(t, c.Delete(ctx, "jma"))
	_, err = c.Catalog(ctx, "jma")
	assert.ErrorIs(t, err, store.ErrNotFound)

	names, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}
