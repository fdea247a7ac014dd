package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kode4food/tremor"
)

func TestWatchCatalogReloads(t *testing.T) {
	s := dataSettings(t, archiveNone, "")
	ld := NewLoader(s, nil, zap.NewNop())

	got := make(chan *tremor.Catalog, 16)
	w, err := WatchCatalog(context.Background(), s.Data, zap.NewNop(),
		ld.Reload, func(_ context.Context, c *tremor.Catalog) { got <- c },
	)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	more := usgsCSV +
		"2011-04-07T14:32:43Z,38.276,141.588,7.1,near the east coast\n"
	require.NoError(t, os.WriteFile(s.Data, []byte(more), 0o644))

	assert.Eventually(t, func() bool {
		select {
		case c := <-got:
			return c.Len() == 3
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatchCatalogMissingFile(t *testing.T) {
	_, err := WatchCatalog(context.Background(),
		"/nonexistent/tremor/quakes.csv", zap.NewNop(),
		func(context.Context) (*tremor.Catalog, error) { return nil, nil },
		func(context.Context, *tremor.Catalog) {},
	)
	assert.Error(t, err)
}

func TestWatchCatalogStopsWithContext(t *testing.T) {
	s := dataSettings(t, archiveNone, "")
	ctx, cancel := context.WithCancel(context.Background())

	w, err := WatchCatalog(ctx, s.Data, zap.NewNop(),
		NewLoader(s, nil, zap.NewNop()).Reload,
		func(context.Context, *tremor.Catalog) {},
	)
	require.NoError(t, err)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.NoError(t, w.Close())
}

func TestWatcherCloseUnblocksDelivery(t *testing.T) {
	s := dataSettings(t, archiveNone, "")
	ld := NewLoader(s, nil, zap.NewNop())

	// nothing ever reads from unread, like a player that has stopped
	unread := make(chan *tremor.Catalog)
	entered := make(chan struct{}, 1)
	w, err := WatchCatalog(context.Background(), s.Data, zap.NewNop(),
		ld.Reload, func(ctx context.Context, c *tremor.Catalog) {
			select {
			case entered <- struct{}{}:
			default:
			}
			select {
			case unread <- c:
			case <-ctx.Done():
			}
		},
	)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Data, []byte(usgsCSV), 0o644))
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was never delivered")
	}

	closed := make(chan error, 1)
	go func() { closed <- w.Close() }()
	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close blocked on a pending delivery")
	}
}
