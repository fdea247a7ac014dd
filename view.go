package tremor

import (
	"time"

	"github.com/google/uuid"
)

type (
	// View is a collaborator that renders playback. The engine only pushes
	// to views and never reads anything back, so views are independent of
	// each other
	View interface {
		// Tick receives the events visible at the frame's instant
		Tick(*Frame)

		// Clear discards all accumulated visual or historical state
		Clear()

		// PauseTransitions freezes any view-owned continuous animation
		PauseTransitions()

		// ResumeTransitions unfreezes animations frozen by PauseTransitions
		ResumeTransitions()
	}

	// Frame is one push from the engine to its views
	Frame struct {
		Time     time.Time
		Events   []*Event
		Session  uuid.UUID
		Seq      uint64
		Step     time.Duration
		Progress float64
		Motion   Motion
		State    State
	}

	// ViewFunc adapts a function into a View that only observes ticks
	ViewFunc func(*Frame)

	// NopView implements View with no behavior. Embed it to implement only
	// part of the contract
	NopView struct{}
)

// Tick calls fn
func (fn ViewFunc) Tick(f *Frame) {
	fn(f)
}

func (ViewFunc) Clear()             {}
func (ViewFunc) PauseTransitions()  {}
func (ViewFunc) ResumeTransitions() {}

func (NopView) Tick(*Frame)        {}
func (NopView) Clear()             {}
func (NopView) PauseTransitions()  {}
func (NopView) ResumeTransitions() {}

// IDs returns the IDs of the frame's events in order
func (f *Frame) IDs() []EventID {
	res := make([]EventID, len(f.Events))
	for i, ev := range f.Events {
		res[i] = ev.ID
	}
	return res
}
