package tremor

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine owns playback of a Catalog: the clock, the windowed cursor and the
// Stopped/Playing/Paused state machine. Every change of instant is pushed to
// the engine's views as a Frame. Engine methods are safe to call from
// multiple goroutines; a control input and a tick never interleave
type Engine struct {
	mu      sync.Mutex
	config  Config
	logger  *zap.Logger
	catalog *Catalog
	clock   *Clock
	cursor  *Cursor
	views   *Hub
	last    *Frame
	session uuid.UUID
	seq     uint64
	state   State
}

// NewEngine creates an Engine over the catalog, pushing to the given views.
// The engine plays across the configured Extent when it is valid, otherwise
// the catalog's own. It starts Stopped at the start of that extent, and its
// initial frame is delivered before NewEngine returns
func NewEngine(c *Catalog, cfg Config, views ...View) *Engine {
	c = cfg.PlaybackCatalog(c)
	extent := c.Extent()
	e := &Engine{
		config:  cfg,
		catalog: c,
		clock:   newClock(extent, cfg.ClampStep(cfg.Step, extent)),
		cursor:  NewCursor(c),
		views:   NewHub(views...),
		session: uuid.New(),
		state:   Stopped,
	}
	e.logger = cfg.logger().With(zap.Stringer("session", e.session))

	e.mu.Lock()
	defer e.mu.Unlock()
	e.seek(extent.Start)
	return e
}

// Views returns the hub the engine pushes to. Views attached later receive
// pushes from the next change onward
func (e *Engine) Views() *Hub {
	return e.views
}

// Catalog returns the catalog being played
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Session identifies this engine instance
func (e *Engine) Session() uuid.UUID {
	return e.session
}

// State returns the current playback state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Now returns the current instant
func (e *Engine) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Now()
}

// Step returns the current window width and per-tick advance
func (e *Engine) Step() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Step()
}

// Progress returns the normalized position of the current instant
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Progress()
}

// Last returns the most recently pushed frame
func (e *Engine) Last() *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Play starts or resumes automatic advance from the current instant
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.play()
}

// Pause holds the current instant. Ticks arriving while paused are ignored
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pause()
}

// Toggle pauses a playing engine and plays otherwise
func (e *Engine) Toggle() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Playing {
		e.pause()
	} else {
		e.play()
	}
	return e.state
}

func (e *Engine) play() {
	if e.state == Playing {
		return
	}
	e.transition(Playing)
	e.views.ResumeTransitions()
}

func (e *Engine) pause() {
	if e.state != Playing {
		return
	}
	e.transition(Paused)
	e.views.PauseTransitions()
}

// Reset stops playback, rewinds to the start of the extent and clears every
// view's accumulated state
func (e *Engine) Reset() *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.transition(Stopped)
	e.views.Clear()
	return e.seek(e.clock.Extent().Start)
}

// Scrub jumps to a normalized position within the extent and pauses. The
// position is clamped to [0, 1]. Views are cleared before the new window is
// pushed so no trail from another region of time survives
func (e *Engine) Scrub(fraction float64) *Frame {
	if c := clampFraction(fraction); c != fraction {
		e.logger.Warn("Scrub position clamped",
			zap.Float64("requested", fraction),
			zap.Float64("clamped", c),
		)
		fraction = c
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scrubTo(e.clock.Extent().At(fraction))
}

// SeekTo jumps to an absolute instant, clamped to the extent, and pauses
func (e *Engine) SeekTo(t time.Time) *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scrubTo(e.clock.Extent().Clamp(t))
}

// Tick advances one step while Playing and pushes the newly visible events.
// It reports false, pushing nothing, when the engine is not Playing; this
// is how a tick scheduled before a pause or reset is cancelled. Reaching
// the end of the extent stops playback
func (e *Engine) Tick() (*Frame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Playing {
		return nil, false
	}

	next := e.clock.next()
	events := e.cursor.Move(Advance, next, e.clock.Step())
	e.clock.set(next)
	if e.clock.AtEnd() {
		e.transition(Stopped)
	}
	return e.push(Advance, events), true
}

// SetStep changes the window width and per-tick advance. The step is clamped
// and snapped to the configured presets. The scan pointer is rebuilt at the
// current instant so no assumption about the previous window survives;
// nothing is pushed
func (e *Engine) SetStep(step time.Duration) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	clamped := e.config.ClampStep(step, e.clock.Extent())
	if clamped != step {
		e.logger.Warn("Step clamped",
			zap.Duration("requested", step),
			zap.Duration("clamped", clamped),
		)
	}
	if clamped == e.clock.Step() {
		return clamped
	}

	e.clock.setStep(clamped)
	e.cursor.Seek(e.clock.Now(), clamped)
	e.logger.Debug("Step changed",
		zap.Duration("step", clamped),
		zap.Time("time", e.clock.Now()),
	)
	return clamped
}

// StepUp selects the next larger preset step, if any
func (e *Engine) StepUp() time.Duration {
	return e.shiftStep(1)
}

// StepDown selects the next smaller preset step, if any
func (e *Engine) StepDown() time.Duration {
	return e.shiftStep(-1)
}

func (e *Engine) shiftStep(dir int) time.Duration {
	cur := e.Step()
	best := cur
	for _, s := range e.config.Steps {
		switch {
		case dir > 0 && s > cur && (best == cur || s < best):
			best = s
		case dir < 0 && s < cur && (best == cur || s > best):
			best = s
		}
	}
	if best == cur {
		return cur
	}
	return e.SetStep(best)
}

func (e *Engine) scrubTo(t time.Time) *Frame {
	if e.state != Paused {
		e.transition(Paused)
		e.views.PauseTransitions()
	}
	e.views.Clear()
	return e.seek(t)
}

func (e *Engine) seek(t time.Time) *Frame {
	e.clock.set(t)
	events := e.cursor.Move(Seek, e.clock.Now(), e.clock.Step())
	return e.push(Seek, events)
}

func (e *Engine) push(m Motion, events []*Event) *Frame {
	e.seq++
	f := &Frame{
		Session:  e.session,
		Seq:      e.seq,
		Time:     e.clock.Now(),
		Step:     e.clock.Step(),
		Events:   events,
		Progress: e.clock.Progress(),
		Motion:   m,
		State:    e.state,
	}
	e.last = f
	e.views.Tick(f)
	return f
}

func (e *Engine) transition(to State) {
	if e.state == to {
		return
	}
	e.logger.Debug("Playback state changed",
		zap.Stringer("from", e.state),
		zap.Stringer("to", to),
		zap.Time("time", e.clock.Now()),
		zap.Duration("step", e.clock.Step()),
	)
	e.state = to
}
