package main

import (
	"context"
	"errors"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kode4food/tremor"
)

type (
	// Watcher reloads the catalog whenever the data file is written or
	// replaced, handing each fresh catalog to a deliver function
	Watcher struct {
		fs      *fsnotify.Watcher
		path    string
		logger  *zap.Logger
		reload  ReloadFunc
		deliver DeliverFunc
		cancel  context.CancelFunc
		done    chan struct{}
	}

	// ReloadFunc produces a freshly ingested catalog
	ReloadFunc func(context.Context) (*tremor.Catalog, error)

	// DeliverFunc receives each reloaded catalog. The context is cancelled
	// when the watcher stops, and a blocked delivery must give up then
	DeliverFunc func(context.Context, *tremor.Catalog)
)

// WatchCatalog starts watching path. The watcher runs until ctx is done or
// Close is called
func WatchCatalog(
	ctx context.Context, path string, logger *zap.Logger,
	reload ReloadFunc, deliver DeliverFunc,
) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(path); err != nil {
		_ = fs.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		fs:      fs,
		path:    path,
		logger:  logger.With(zap.String("path", path)),
		reload:  reload,
		deliver: deliver,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Close stops the watcher and waits for it to exit
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fs.Close()
	<-w.done
	return err
}

// Done is closed once the watcher has exited
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer w.cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
		w.refresh(ctx)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// editors often replace the file, which drops the watch
		if err := w.fs.Add(w.path); err != nil {
			if !errors.Is(err, fsnotify.ErrClosed) {
				w.logger.Warn("Data file gone, watch not restored",
					zap.Error(err),
				)
			}
			return
		}
		w.refresh(ctx)
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	c, err := w.reload(ctx)
	if err != nil {
		w.logger.Warn("Catalog reload failed", zap.Error(err))
		return
	}
	w.logger.Info("Catalog reloaded", zap.Int("events", c.Len()))
	w.deliver(ctx, c)
}
