package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/views"
)

type (
	// Player is one engine together with the views the terminal draws
	Player struct {
		Engine   *tremor.Engine
		World    *views.Map
		Timeline *views.Timeline
		History  *views.History
	}

	// Model is the bubbletea model hosting a Player
	Model struct {
		player   *Player
		config   tremor.Config
		extra    []tremor.View
		keys     keyMap
		help     help.Model
		gen      uint64
		lastTick time.Time
		width    int
		height   int
		err      error
	}

	tickMsg struct {
		gen uint64
		at  time.Time
	}

	catalogMsg struct {
		catalog *tremor.Catalog
	}

	errMsg struct {
		err error
	}
)

const (
	historyWidth = 34
	chromeHeight = 6
)

var (
	accent = lipgloss.Color("#50E3C2")
	muted  = lipgloss.Color("#8CA1AE")
	alert  = lipgloss.Color("#FF6B6B")

	statusStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().Foreground(alert).Bold(true)
)

// NewPlayer builds the views and an engine pushing to them, plus any extra
// views such as metrics or a frame stream
func NewPlayer(
	c *tremor.Catalog, cfg tremor.Config, width, height int,
	extra ...tremor.View,
) *Player {
	c = cfg.PlaybackCatalog(c)
	mapW, mapH := mapSize(width, height)
	p := &Player{
		World:    views.NewMap(views.JapanBounds, mapW, mapH),
		Timeline: views.NewTimeline(c, width),
		History:  views.NewHistory(0),
	}
	all := append([]tremor.View{p.World, p.Timeline, p.History}, extra...)
	p.Engine = tremor.NewEngine(c, cfg, all...)
	return p
}

// NewModel creates the terminal model over a catalog
func NewModel(c *tremor.Catalog, cfg tremor.Config, extra ...tremor.View) *Model {
	return &Model{
		player: NewPlayer(c, cfg, 0, 0, extra...),
		config: cfg,
		extra:  extra,
		keys:   newKeyMap(),
		help:   help.New(),
	}
}

// Player returns the current player
func (m *Model) Player() *Player {
	return m.player
}

// Init starts the tick chain
func (m *Model) Init() tea.Cmd {
	return m.restart()
}

// Update handles input, ticks and reloaded catalogs
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case catalogMsg:
		m.player = NewPlayer(
			msg.catalog, m.config, m.width, m.height, m.extra...,
		)
		m.err = nil
		return m, m.restart()
	case errMsg:
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	e := m.player.Engine
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Play):
		e.Toggle()
	case key.Matches(msg, m.keys.Reset):
		e.Reset()
	case key.Matches(msg, m.keys.Faster):
		e.StepUp()
		return nil
	case key.Matches(msg, m.keys.Slower):
		e.StepDown()
		return nil
	case key.Matches(msg, m.keys.Back):
		e.Scrub(e.Progress() - scrubNudge)
	case key.Matches(msg, m.keys.Forward):
		e.Scrub(e.Progress() + scrubNudge)
	case key.Matches(msg, m.keys.Jump):
		e.Scrub(float64(msg.String()[0]-'0') / 10)
	default:
		return nil
	}
	return m.restart()
}

// restart abandons the running tick chain. Ticks already scheduled carry
// the old generation and are dropped on arrival
func (m *Model) restart() tea.Cmd {
	m.gen++
	m.lastTick = time.Time{}
	return m.scheduleTick()
}

func (m *Model) scheduleTick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval(), func(at time.Time) tea.Msg {
		return tickMsg{gen: gen, at: at}
	})
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.gen != m.gen {
		return nil
	}
	dt := m.interval()
	if !m.lastTick.IsZero() {
		dt = msg.at.Sub(m.lastTick)
	}
	m.lastTick = msg.at
	m.player.World.Animate(dt)

	if m.player.Engine.State() == tremor.Playing {
		m.player.Engine.Tick()
	}
	return m.scheduleTick()
}

func (m *Model) interval() time.Duration {
	if m.config.TickInterval > 0 {
		return m.config.TickInterval
	}
	return tremor.DefaultTickInterval
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	mapW, mapH := mapSize(width, height)
	m.player.World.Resize(mapW, mapH)
	m.player.Timeline.Resize(width)
	m.help.Width = width
}

// View draws the map beside the history, then the timeline and status
func (m *Model) View() string {
	p := m.player
	side := panelStyle.Render(p.History.Render(historyWidth - 4))
	body := lipgloss.JoinHorizontal(lipgloss.Top, p.World.Render(), side)

	parts := []string{
		body,
		p.Timeline.Render(),
		statusStyle.Render(m.status()),
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render(m.err.Error()))
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) status() string {
	e := m.player.Engine
	return fmt.Sprintf("%s  %-7s  step %-4s  %5.1f%%",
		e.Now().In(tremor.JST).Format("2006/01/02"),
		e.State(),
		formatStep(e.Step()),
		e.Progress()*100,
	)
}

func mapSize(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	// the map's rounded border takes two columns and two rows
	return width - historyWidth - 2, height - chromeHeight - 2
}

func formatStep(d time.Duration) string {
	day := 24 * time.Hour
	switch {
	case d >= day && d%day == 0:
		return fmt.Sprintf("%dd", d/day)
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		return strings.TrimSuffix(d.String(), "0s")
	}
}
