package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/kode4food/tremor"
)

// RunHeadless plays the catalog to the end on a Scheduler, logging each
// frame. A catalog arriving on reloads replaces the engine and starts
// playback over
func RunHeadless(
	ctx context.Context, c *tremor.Catalog, cfg tremor.Config,
	logger *zap.Logger, reloads <-chan *tremor.Catalog, extra ...tremor.View,
) error {
	for {
		all := append([]tremor.View{frameLogger(logger)}, extra...)
		e := tremor.NewEngine(c, cfg, all...)
		logger.Info("Playback started",
			zap.Stringer("session", e.Session()),
			zap.Int("events", c.Len()),
			zap.Duration("step", e.Step()),
		)
		e.Play()

		s := tremor.NewScheduler(e)
		s.Start(ctx)

		select {
		case <-s.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.Info("Playback finished", zap.Stringer("session", e.Session()))
			return nil
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case next := <-reloads:
			s.Stop()
			c = next
		}
	}
}

func frameLogger(logger *zap.Logger) tremor.View {
	return tremor.ViewFunc(func(f *tremor.Frame) {
		logger.Info("Frame",
			zap.Uint64("seq", f.Seq),
			zap.Time("time", f.Time),
			zap.Stringer("motion", f.Motion),
			zap.Stringer("state", f.State),
			zap.Int("events", len(f.Events)),
			zap.Float64("progress", f.Progress),
		)
	})
}
