package tremor

import "sync"

type (
	// Hub fans engine pushes out to its attached views. Delivery is
	// synchronous and in attachment order: a push returns only after every
	// view has received it, so pushes never overlap
	Hub struct {
		mu      sync.RWMutex
		views   []attachment
		counter ViewID
	}

	// ViewID identifies an attached view for later detachment
	ViewID uint64

	attachment struct {
		view View
		id   ViewID
	}
)

// NewHub creates a Hub with the given views attached
func NewHub(views ...View) *Hub {
	h := &Hub{}
	for _, v := range views {
		h.Attach(v)
	}
	return h
}

// Attach adds a view to the end of the delivery order
func (h *Hub) Attach(v View) ViewID {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counter++
	h.views = append(h.views, attachment{view: v, id: h.counter})
	return h.counter
}

// Detach removes a previously attached view. It reports whether the view was
// attached
func (h *Hub) Detach(id ViewID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, a := range h.views {
		if a.id == id {
			h.views = append(h.views[:i:i], h.views[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of attached views
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.views)
}

// Tick delivers a frame to every view
func (h *Hub) Tick(f *Frame) {
	h.each(func(v View) { v.Tick(f) })
}

// Clear asks every view to discard its accumulated state
func (h *Hub) Clear() {
	h.each(View.Clear)
}

// PauseTransitions freezes view animations
func (h *Hub) PauseTransitions() {
	h.each(View.PauseTransitions)
}

// ResumeTransitions unfreezes view animations
func (h *Hub) ResumeTransitions() {
	h.each(View.ResumeTransitions)
}

func (h *Hub) each(fn func(View)) {
	h.mu.RLock()
	views := h.views
	h.mu.RUnlock()

	for _, a := range views {
		fn(a.view)
	}
}
