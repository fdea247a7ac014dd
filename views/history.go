package views

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/kode4food/tremor"
)

// History lists the most recent significant events, newest first. It is
// emptied whenever the engine clears its views
type History struct {
	mu    sync.Mutex
	items []tremor.Event
	max   int
}

const (
	DefaultHistorySize = 6

	// SignificantMagnitude qualifies an event for the history on its own
	SignificantMagnitude = 7.0

	historyTitle    = "地震履歴 (M7.0↑ または 震度6弱↑)"
	unknownLocation = "震源地不明"
	historyTime     = "2006/01/02 15:04"
)

// SignificantIntensity qualifies an event for the history on its own
const SignificantIntensity = tremor.Intensity6Lower

var (
	historyTitleStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#00796B"))
	historyItemStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.ThickBorder()).
				BorderLeft(true).
				BorderForeground(lipgloss.Color("#D32F2F")).
				PaddingLeft(1)
	magnitudeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#D32F2F"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

var _ tremor.View = (*History)(nil)

// NewHistory creates a History holding up to size events
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{max: size}
}

// Significant reports whether an event belongs in the history
func Significant(ev *tremor.Event) bool {
	return ev.Magnitude >= SignificantMagnitude ||
		ev.Intensity.AtLeast(SignificantIntensity)
}

// Tick adds the frame's significant events that are not already listed
func (h *History) Tick(f *tremor.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ev := range f.Events {
		if !Significant(ev) || h.contains(ev.ID) {
			continue
		}
		h.items = append([]tremor.Event{*ev}, h.items...)
		if len(h.items) > h.max {
			h.items = h.items[:h.max]
		}
	}
}

// Clear empties the history
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = nil
}

func (*History) PauseTransitions()  {}
func (*History) ResumeTransitions() {}

// Items returns the listed events, newest first
func (h *History) Items() []tremor.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	res := make([]tremor.Event, len(h.items))
	copy(res, h.items)
	return res
}

// Render draws the list at the given width
func (h *History) Render(width int) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	rows := []string{historyTitleStyle.Width(width).Render(historyTitle)}
	for _, ev := range h.items {
		loc := ev.Location
		if loc == "" {
			loc = unknownLocation
		}
		head := fmt.Sprintf("%s %s",
			magnitudeStyle.Render(fmt.Sprintf("M%.1f", ev.Magnitude)),
			ev.Intensity.Label(),
		)
		body := strings.Join([]string{
			head,
			detailStyle.Render(ev.Timestamp.Format(historyTime)),
			loc,
		}, "\n")
		rows = append(rows, historyItemStyle.Width(width-2).Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (h *History) contains(id tremor.EventID) bool {
	for _, ev := range h.items {
		if ev.ID == id {
			return true
		}
	}
	return false
}
