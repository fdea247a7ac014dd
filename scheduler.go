package tremor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler drives an Engine's ticks from a timer. Ticks are strictly
// sequential: the next tick is only scheduled after the previous push has
// been delivered to every view. The engine's own state decides whether a
// tick takes effect, so pausing never races with a pending tick
type Scheduler struct {
	engine   *Engine
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	interval time.Duration
	once     sync.Once
	stopOnce sync.Once
}

// NewScheduler creates a Scheduler for the engine using the configured tick
// interval
func NewScheduler(e *Engine) *Scheduler {
	return &Scheduler{
		engine:   e,
		logger:   e.logger,
		interval: e.config.tickInterval(),
		done:     make(chan struct{}),
	}
}

// Start begins ticking in a background goroutine; call Play on the engine
// first. The scheduler exits when ctx is cancelled, Stop is called, or the
// engine becomes Stopped (end of extent or Reset). Pausing keeps the
// scheduler alive so that a later Play resumes ticking
func (s *Scheduler) Start(ctx context.Context) {
	s.once.Do(func() {
		s.ctx, s.cancel = context.WithCancel(ctx)
		go s.run()
	})
}

// Stop halts the scheduler and waits for the current tick to finish
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel == nil {
			close(s.done)
			return
		}
		s.cancel()
		<-s.done
	})
}

// Done is closed once the scheduler has exited
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) run() {
	defer close(s.done)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
			if !s.tick() {
				return
			}
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) tick() bool {
	start := time.Now()
	f, ok := s.engine.Tick()
	if !ok {
		return s.engine.State() != Stopped
	}

	s.logger.Debug("Tick delivered",
		zap.Uint64("seq", f.Seq),
		zap.Time("time", f.Time),
		zap.Int("events", len(f.Events)),
		zap.Duration("duration", time.Since(start)),
	)
	return f.State != Stopped
}
