package views

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kode4food/tremor"
)

// Timeline draws the playback extent as an axis with year labels, an event
// density strip and a progress indicator
type Timeline struct {
	mu       sync.Mutex
	extent   tremor.Extent
	stamps   []time.Time
	density  []int
	progress float64
	width    int
}

const DefaultTimelineWidth = 80

var (
	densityGlyphs = []rune(" ▁▂▃▄▅▆▇█")

	indicatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D32F2F")).
			Bold(true)
	axisStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#78909C"))
	densityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00796B"))
)

var _ tremor.View = (*Timeline)(nil)

// NewTimeline creates a Timeline over the catalog's extent
func NewTimeline(c *tremor.Catalog, width int) *Timeline {
	t := &Timeline{
		extent: c.Extent(),
		stamps: make([]time.Time, c.Len()),
	}
	for i := range t.stamps {
		t.stamps[i] = c.At(i).Timestamp
	}
	t.resize(width)
	return t
}

// Tick moves the indicator to the frame's position
func (t *Timeline) Tick(f *tremor.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = f.Progress
}

func (*Timeline) Clear()             {}
func (*Timeline) PauseTransitions()  {}
func (*Timeline) ResumeTransitions() {}

// Resize changes the width in columns
func (t *Timeline) Resize(width int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resize(width)
}

// Position returns the indicator column
func (t *Timeline) Position() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position()
}

// Density returns the number of events falling in each column
func (t *Timeline) Density() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := make([]int, len(t.density))
	copy(res, t.density)
	return res
}

// Render draws the density strip, the axis with the indicator, and the
// year labels
func (t *Timeline) Render() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos := t.position()
	peak := 0
	for _, d := range t.density {
		peak = max(peak, d)
	}

	var strip, axis strings.Builder
	for col, d := range t.density {
		g := densityGlyph(d, peak)
		if col == pos {
			strip.WriteString(indicatorStyle.Render(string(g)))
			axis.WriteString(indicatorStyle.Render("▲"))
			continue
		}
		strip.WriteString(densityStyle.Render(string(g)))
		axis.WriteString(axisStyle.Render(axisGlyph(col, t.width)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		strip.String(), axis.String(), t.labels(),
	)
}

func (t *Timeline) resize(width int) {
	if width < 2 {
		width = DefaultTimelineWidth
	}
	t.width = width
	t.density = make([]int, width)
	for _, ts := range t.stamps {
		if c, ok := t.column(ts); ok {
			t.density[c]++
		}
	}
}

func (t *Timeline) position() int {
	return int(math.Round(t.progress * float64(t.width-1)))
}

func (t *Timeline) column(ts time.Time) (int, bool) {
	if !t.extent.Contains(ts) {
		return 0, false
	}
	f := t.extent.Fraction(ts)
	return int(math.Round(f * float64(t.width-1))), true
}

// labels places a year label at the first column of each year that has
// room for it
func (t *Timeline) labels() string {
	row := []rune(strings.Repeat(" ", t.width))
	next := 0
	start := t.extent.Start
	for y := start.Year(); y <= t.extent.End.Year(); y++ {
		at := time.Date(y, time.January, 1, 0, 0, 0, 0, start.Location())
		c, ok := t.column(at)
		if !ok || c < next {
			continue
		}
		label := []rune(strconv.Itoa(y))
		if c+len(label) > t.width {
			break
		}
		copy(row[c:], label)
		next = c + len(label) + 1
	}
	return axisStyle.Render(string(row))
}

func densityGlyph(count, peak int) rune {
	if count == 0 || peak == 0 {
		return densityGlyphs[0]
	}
	steps := len(densityGlyphs) - 1
	idx := int(math.Ceil(float64(count) / float64(peak) * float64(steps)))
	return densityGlyphs[min(idx, steps)]
}

func axisGlyph(col, width int) string {
	switch col {
	case 0:
		return "├"
	case width - 1:
		return "┤"
	default:
		return "─"
	}
}
