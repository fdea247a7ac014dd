package views_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/views"
)

func historyIDs(h *views.History) []tremor.EventID {
	res := []tremor.EventID{}
	for _, ev := range h.Items() {
		res = append(res, ev.ID)
	}
	return res
}

func TestSignificant(t *testing.T) {
	assert.True(t, views.Significant(quake(1, 7.0, "")))
	assert.True(t, views.Significant(quake(1, 5.1, tremor.Intensity6Lower)))
	assert.True(t, views.Significant(quake(1, 4.0, tremor.Intensity7)))
	assert.False(t, views.Significant(quake(1, 6.9, tremor.Intensity5Upper)))
	assert.False(t, views.Significant(quake(1, 3.0, "")))
}

func TestHistoryNewestFirst(t *testing.T) {
	h := views.NewHistory(0)
	h.Tick(frame(
		quake(1, 7.3, tremor.Intensity7),
		quake(2, 5.0, tremor.Intensity3),
		quake(3, 6.0, tremor.Intensity6Upper),
	))
	assert.Equal(t, []tremor.EventID{3, 1}, historyIDs(h))

	h.Tick(frame(quake(1, 7.3, tremor.Intensity7)))
	assert.Equal(t, []tremor.EventID{3, 1}, historyIDs(h))
}

func TestHistoryCapacity(t *testing.T) {
	h := views.NewHistory(0)
	for i := range 8 {
		h.Tick(frame(quake(int64(i), 7.5, "")))
	}
	assert.Equal(t,
		[]tremor.EventID{7, 6, 5, 4, 3, 2}, historyIDs(h),
	)

	small := views.NewHistory(2)
	small.Tick(frame(quake(1, 8, ""), quake(2, 8, ""), quake(3, 8, "")))
	assert.Equal(t, []tremor.EventID{3, 2}, historyIDs(small))
}

func TestHistoryClear(t *testing.T) {
	h := views.NewHistory(0)
	h.Tick(frame(quake(1, 8, "")))
	h.PauseTransitions()
	h.Clear()
	assert.Empty(t, h.Items())

	h.Tick(frame(quake(1, 8, "")))
	assert.Equal(t, []tremor.EventID{1}, historyIDs(h))
}

func TestHistoryRender(t *testing.T) {
	h := views.NewHistory(0)
	named := quake(1, 9.0, tremor.Intensity7)
	named.Location = "三陸沖"
	h.Tick(frame(named, quake(2, 7.1, "")))

	out := h.Render(40)
	assert.Contains(t, out, "地震履歴")
	assert.Contains(t, out, "M9.0")
	assert.Contains(t, out, "震度７")
	assert.Contains(t, out, "三陸沖")
	assert.Contains(t, out, "震源地不明")
	assert.Contains(t, out, "2011/03/11 14:46")
}
