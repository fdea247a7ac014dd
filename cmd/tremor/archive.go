package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/ingest"
	"github.com/kode4food/tremor/store"
	"github.com/kode4food/tremor/store/bolt"
	"github.com/kode4food/tremor/store/postgres"
	"github.com/kode4food/tremor/store/redis"
	"github.com/kode4food/tremor/store/sqlite"
)

// Loader resolves the configured catalog, preferring an archived copy and
// archiving whatever it has to parse
type Loader struct {
	settings Settings
	logger   *zap.Logger
	archive  *store.Cached
	frames   *redis.Archive
}

const (
	archiveNone     = "none"
	archiveRedis    = "redis"
	archivePostgres = "postgres"
	archiveBolt     = "bolt"
	archiveSQLite   = "sqlite"
)

// ErrUnknownArchive is returned for an unsupported archive kind
var ErrUnknownArchive = errors.New("unknown archive kind")

// OpenArchive opens the configured backend. It returns nil for "none"
func OpenArchive(
	ctx context.Context, s ArchiveSettings,
) (store.Archive, error) {
	switch s.Kind {
	case "", archiveNone:
		return nil, nil
	case archiveRedis:
		cfg := redis.DefaultConfig()
		if s.DSN != "" {
			var err error
			if cfg, err = redis.ConfigFromURL(s.DSN); err != nil {
				return nil, err
			}
		}
		return redis.Open(ctx, cfg)
	case archivePostgres:
		return postgres.Open(ctx, s.DSN)
	case archiveBolt:
		return bolt.Open(s.DSN)
	case archiveSQLite:
		return sqlite.Open(ctx, s.DSN)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownArchive, s.Kind)
	}
}

// NewLoader creates a Loader. The archive may be nil
func NewLoader(s Settings, a store.Archive, logger *zap.Logger) *Loader {
	l := &Loader{settings: s, logger: logger}
	if a != nil {
		l.archive = store.NewCached(a, nil)
	}
	if r, ok := a.(*redis.Archive); ok {
		l.frames = r
	}
	return l
}

// Load returns the archived catalog when there is one, otherwise it reads
// the data file
func (l *Loader) Load(ctx context.Context) (*tremor.Catalog, error) {
	name := l.settings.DatasetName()
	if l.archive != nil && name != "" {
		c, err := l.archive.Catalog(ctx, name)
		if err == nil {
			l.logger.Info("Catalog loaded from archive",
				zap.String("dataset", name),
				zap.Int("events", c.Len()),
			)
			return l.playbackExtent(c)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return l.Reload(ctx)
}

// Reload reads the data file and replaces any archived copy
func (l *Loader) Reload(ctx context.Context) (*tremor.Catalog, error) {
	if l.settings.Data == "" {
		return nil, ErrNoData
	}
	opts, err := l.settings.Ingest.Options(l.logger)
	if err != nil {
		return nil, err
	}
	ext, err := l.settings.Playback.Extent()
	if err != nil {
		return nil, err
	}

	c, res, err := ingest.LoadCatalog(l.settings.Data, ext, opts)
	if err != nil {
		return nil, err
	}
	l.logger.Info("Catalog ingested",
		zap.String("path", l.settings.Data),
		zap.Int("events", c.Len()),
		zap.Int("dropped", res.Dropped),
	)

	if l.archive == nil {
		return c, nil
	}
	name := l.settings.DatasetName()
	if err := l.archive.Put(ctx, name, store.FromCatalog(c)); err != nil {
		return nil, fmt.Errorf("archive %s: %w", name, err)
	}
	return c, nil
}

// playbackExtent replays an archived catalog across the configured extent,
// which may have changed since it was archived
func (l *Loader) playbackExtent(c *tremor.Catalog) (*tremor.Catalog, error) {
	ext, err := l.settings.Playback.Extent()
	if err != nil {
		return nil, err
	}
	if ext == (tremor.Extent{}) {
		return c, nil
	}
	return c.WithExtent(ext)
}

// FrameStream returns a View publishing frames to Redis when the archive
// is Redis backed, otherwise nil
func (l *Loader) FrameStream(ctx context.Context) tremor.View {
	if l.frames == nil {
		return nil
	}
	return l.frames.NewFrameStream(ctx, l.logger)
}
