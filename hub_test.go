package tremor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/tremor"
)

type orderedView struct {
	tremor.NopView
	name string
	log  *[]string
}

func (v *orderedView) Tick(*tremor.Frame) {
	*v.log = append(*v.log, v.name)
}

func TestHubDeliversInOrder(t *testing.T) {
	var log []string
	hub := tremor.NewHub(
		&orderedView{name: "map", log: &log},
		&orderedView{name: "timeline", log: &log},
	)
	hub.Attach(&orderedView{name: "history", log: &log})
	assert.Equal(t, 3, hub.Len())

	hub.Tick(&tremor.Frame{})
	assert.Equal(t, []string{"map", "timeline", "history"}, log)
}

func TestHubDetach(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	hub := tremor.NewHub()
	idA := hub.Attach(a)
	hub.Attach(b)

	assert.True(t, hub.Detach(idA))
	assert.False(t, hub.Detach(idA))
	assert.Equal(t, 1, hub.Len())

	hub.Tick(&tremor.Frame{})
	hub.Clear()
	hub.PauseTransitions()
	hub.ResumeTransitions()

	assert.Empty(t, a.frames)
	assert.Len(t, b.frames, 1)
	assert.Equal(t, 1, b.clears)
	assert.Equal(t, 1, b.pauses)
	assert.Equal(t, 1, b.resumes)
}

func TestHubIsAView(t *testing.T) {
	inner := &recorder{}
	var v tremor.View = tremor.NewHub(inner)

	v.Tick(&tremor.Frame{})
	v.Clear()
	assert.Len(t, inner.frames, 1)
	assert.Equal(t, 1, inner.clears)
}

func TestViewFunc(t *testing.T) {
	var got *tremor.Frame
	v := tremor.ViewFunc(func(f *tremor.Frame) { got = f })

	f := &tremor.Frame{Seq: 3}
	v.Tick(f)
	v.Clear()
	v.PauseTransitions()
	v.ResumeTransitions()
	assert.Same(t, f, got)
}
