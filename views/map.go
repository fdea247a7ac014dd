package views

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kode4food/tremor"
)

type (
	// Map plots the events of each frame as markers on an equirectangular
	// character grid. Markers grow, hold and fade on their own clock, which
	// the host advances with Animate
	Map struct {
		mu      sync.Mutex
		markers map[tremor.EventID]*marker
		bounds  Bounds
		now     time.Time
		width   int
		height  int
	}

	// Bounds is a longitude/latitude box in degrees
	Bounds struct {
		West  float64
		East  float64
		South float64
		North float64
	}

	// MarkerState is a snapshot of one marker's animation
	MarkerState struct {
		Event   tremor.Event
		Radius  float64
		Opacity float64
		Frozen  bool
	}

	marker struct {
		event       tremor.Event
		age         time.Duration
		fromRadius  float64
		fromOpacity float64
		frozen      bool
		resumed     bool
	}
)

const (
	DefaultMapWidth  = 60
	DefaultMapHeight = 24

	graticuleDegrees = 5
	faintOpacity     = 0.5
	dateLayout       = "2006/01/02"
)

var (
	// JapanBounds frames the Japanese archipelago
	JapanBounds = Bounds{West: 122, East: 149, South: 24, North: 46}

	graticuleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#455A64"))
	dateStyle      = lipgloss.NewStyle().Bold(true)
	mapFrameStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#B0BEC5"))
)

var _ tremor.View = (*Map)(nil)

// NewMap creates a Map over the given bounds and grid size
func NewMap(b Bounds, width, height int) *Map {
	if width < 2 {
		width = DefaultMapWidth
	}
	if height < 2 {
		height = DefaultMapHeight
	}
	return &Map{
		markers: map[tremor.EventID]*marker{},
		bounds:  b,
		width:   width,
		height:  height,
	}
}

// Tick starts a marker for every event not already on the map
func (m *Map) Tick(f *tremor.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = f.Time
	for _, ev := range f.Events {
		if _, ok := m.markers[ev.ID]; ok {
			continue
		}
		m.markers[ev.ID] = &marker{event: *ev}
	}
}

// Clear removes every marker at once
func (m *Map) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.markers)
}

// PauseTransitions freezes the markers currently on the map. Markers added
// afterward animate normally
func (m *Map) PauseTransitions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mk := range m.markers {
		mk.frozen = true
	}
}

// ResumeTransitions restarts every marker as a fade from its current size
func (m *Map) ResumeTransitions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mk := range m.markers {
		r, o, _ := mk.state()
		mk.fromRadius, mk.fromOpacity = r, o
		mk.age = 0
		mk.resumed = true
		mk.frozen = false
	}
}

// Animate ages every unfrozen marker by dt and drops finished ones
func (m *Map) Animate(dt time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, mk := range m.markers {
		if mk.frozen {
			continue
		}
		mk.age += dt
		if _, _, done := mk.state(); done {
			delete(m.markers, id)
		}
	}
}

// Len returns the number of markers on the map
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.markers)
}

// Markers returns the current markers ordered by event ID
func (m *Map) Markers() []MarkerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := make([]MarkerState, 0, len(m.markers))
	for _, mk := range m.markers {
		r, o, _ := mk.state()
		res = append(res, MarkerState{
			Event:   mk.event,
			Radius:  r,
			Opacity: o,
			Frozen:  mk.frozen,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Event.ID < res[j].Event.ID
	})
	return res
}

// Resize changes the grid dimensions
func (m *Map) Resize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.width = max(width, 2)
	m.height = max(height, 2)
}

// Cell projects a coordinate onto the grid, reporting false when it lies
// outside the bounds
func (m *Map) Cell(lat, lon float64) (col, row int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cell(lat, lon)
}

// Render draws the grid with the current date overlay
func (m *Map) Render() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	grid := make([][]string, m.height)
	for r := range grid {
		grid[r] = make([]string, m.width)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	m.drawGraticule(grid)

	states := make([]MarkerState, 0, len(m.markers))
	for _, mk := range m.markers {
		r, o, _ := mk.state()
		if r > 0 {
			states = append(states, MarkerState{Event: mk.event, Radius: r, Opacity: o})
		}
	}
	// small markers are drawn last so they stay visible
	sort.Slice(states, func(i, j int) bool {
		if states[i].Radius != states[j].Radius {
			return states[i].Radius > states[j].Radius
		}
		return states[i].Event.ID < states[j].Event.ID
	})
	for _, s := range states {
		c, r, ok := m.cell(s.Event.Latitude, s.Event.Longitude)
		if !ok {
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(IntensityColor(s.Event.Intensity)).
			Faint(s.Opacity < faintOpacity)
		grid[r][c] = style.Render(glyph(s.Radius))
	}

	var b strings.Builder
	date := ""
	if !m.now.IsZero() {
		date = m.now.Format(dateLayout)
	}
	b.WriteString(dateStyle.Render(date))
	for _, row := range grid {
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, ""))
	}
	return mapFrameStyle.Render(b.String())
}

func (m *Map) cell(lat, lon float64) (int, int, bool) {
	b := m.bounds
	if lon < b.West || lon > b.East || lat < b.South || lat > b.North {
		return 0, 0, false
	}
	x := (lon - b.West) / (b.East - b.West)
	y := (b.North - lat) / (b.North - b.South)
	col := int(math.Round(x * float64(m.width-1)))
	row := int(math.Round(y * float64(m.height-1)))
	return col, row, true
}

func (m *Map) drawGraticule(grid [][]string) {
	b := m.bounds
	first := func(v float64) float64 {
		return math.Ceil(v/graticuleDegrees) * graticuleDegrees
	}
	for lat := first(b.South); lat <= b.North; lat += graticuleDegrees {
		for lon := first(b.West); lon <= b.East; lon += graticuleDegrees {
			if c, r, ok := m.cell(lat, lon); ok {
				grid[r][c] = graticuleStyle.Render("+")
			}
		}
	}
}

func (mk *marker) state() (radius, opacity float64, done bool) {
	full := Radius(mk.event.Magnitude)
	if mk.resumed {
		if mk.age >= ResumeDuration {
			return 0, 0, true
		}
		f := 1 - float64(mk.age)/float64(ResumeDuration)
		return mk.fromRadius * f, mk.fromOpacity * f, false
	}

	switch {
	case mk.age < GrowDuration:
		return full * float64(mk.age) / float64(GrowDuration), 1, false
	case mk.age < GrowDuration+HoldDuration:
		return full, 1, false
	case mk.age < Lifetime:
		f := 1 - float64(mk.age-GrowDuration-HoldDuration)/float64(FadeDuration)
		return full * f, f, false
	default:
		return 0, 0, true
	}
}

func glyph(radius float64) string {
	switch {
	case radius < 4:
		return "·"
	case radius < 10:
		return "•"
	case radius < 25:
		return "●"
	default:
		return "◉"
	}
}
