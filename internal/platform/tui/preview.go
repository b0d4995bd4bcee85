package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/dude-platformer/internal/core"
	"github.com/vovakirdan/dude-platformer/internal/layout"
	"github.com/vovakirdan/dude-platformer/internal/moving"
)

// previewChrome is the number of rows used by the status and help lines.
const previewChrome = 3

// PreviewKeyMap defines the key bindings for the layout preview.
type PreviewKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Reseed key.Binding
	Pause  key.Binding
	Labels key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k PreviewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Reseed, k.Pause, k.Labels, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k PreviewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Reseed},
		{k.Pause, k.Labels, k.Quit},
	}
}

// DefaultPreviewKeyMap returns default key bindings.
func DefaultPreviewKeyMap() PreviewKeyMap {
	return PreviewKeyMap{
		Next: key.NewBinding(
			key.WithKeys("n", "right", "l"),
			key.WithHelp("n/→", "next variant"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "left", "h"),
			key.WithHelp("p/←", "prev variant"),
		),
		Reseed: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "new seed"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause"),
		),
		Labels: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "indexes"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// PreviewOptions configures a preview session.
type PreviewOptions struct {
	Variant  int
	Seed     uint32
	TickRate int
	Width    int
	Height   int
}

// PreviewModel shows a generated layout scaled to the terminal and animates
// its moving platforms.
type PreviewModel struct {
	gen     *layout.Generator
	planner *moving.Planner
	opts    PreviewOptions

	layout layout.Layout
	movers []*moving.Platform
	status error // validation result of the static layout

	screen     *core.Screen
	keys       PreviewKeyMap
	help       help.Model
	paused     bool
	showLabels bool
	quitting   bool
	lastTick   time.Time
	newSeed    func() uint32
}

// NewPreviewModel creates a preview for the given variant and seed.
func NewPreviewModel(gen *layout.Generator, planner *moving.Planner, opts PreviewOptions) PreviewModel {
	if opts.TickRate <= 0 {
		opts.TickRate = 30
	}
	m := PreviewModel{
		gen:     gen,
		planner: planner,
		opts:    opts,
		keys:    DefaultPreviewKeyMap(),
		help:    help.New(),
		screen:  core.NewScreen(opts.Width, max(opts.Height-previewChrome, 0)),
		newSeed: func() uint32 { return uint32(time.Now().UnixNano()) },
	}
	m.regenerate()
	return m
}

// regenerate rebuilds the layout and moving platforms for the current
// variant and seed.
func (m *PreviewModel) regenerate() {
	m.layout = m.gen.Generate(m.opts.Variant, m.opts.Seed)
	m.movers = m.planner.Attach(m.layout, m.opts.Variant, m.opts.Seed)
	m.status = m.gen.Validate(m.layout.Platforms)
	m.lastTick = time.Time{}
}

// Init starts the tick loop.
func (m PreviewModel) Init() tea.Cmd {
	return tickCmd(m.opts.TickRate)
}

// Update handles messages and updates the model state.
func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.opts.Width, m.opts.Height = msg.Width, msg.Height
		m.screen = core.NewScreen(msg.Width, max(msg.Height-previewChrome, 0))
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		now := time.Time(msg)
		if !m.paused && !m.lastTick.IsZero() {
			m.Step(float64(now.Sub(m.lastTick)) / float64(time.Millisecond))
		}
		m.lastTick = now
		return m, tickCmd(m.opts.TickRate)
	}

	return m, nil
}

func (m PreviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.opts.Variant++
		m.regenerate()
	case key.Matches(msg, m.keys.Prev):
		if m.opts.Variant > 0 {
			m.opts.Variant--
			m.regenerate()
		}
	case key.Matches(msg, m.keys.Reseed):
		m.opts.Seed = m.newSeed()
		m.regenerate()
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		m.lastTick = time.Time{}
	case key.Matches(msg, m.keys.Labels):
		m.showLabels = !m.showLabels
	}
	return m, nil
}

// Step advances every moving platform by deltaMs.
func (m *PreviewModel) Step(deltaMs float64) {
	for _, pl := range m.movers {
		m.planner.Advance(pl, deltaMs)
	}
}

// Variant returns the variant being shown.
func (m PreviewModel) Variant() int {
	return m.opts.Variant
}

// Layout returns the layout being shown.
func (m PreviewModel) Layout() layout.Layout {
	return m.layout
}

// Movers returns the motion-controlled platforms.
func (m PreviewModel) Movers() []*moving.Platform {
	return m.movers
}

// draw renders the field into the screen buffer.
func (m PreviewModel) draw() {
	s := m.screen
	s.Clear()
	if s.Width() == 0 || s.Height() == 0 {
		return
	}

	tuning := m.layout.Tuning
	vp := core.Viewport{
		FieldW: tuning.FieldWidth,
		FieldH: tuning.FieldHeight,
		Cols:   s.Width(),
		Rows:   s.Height(),
	}

	moved := make(map[int]bool, len(m.movers))
	for _, pl := range m.movers {
		moved[pl.Index] = true
	}

	for i, p := range m.layout.Platforms {
		switch {
		case i == 0:
			s.DrawRect(vp.Project(p.Box()), '▓', core.ColorGround)
		case moved[i]:
			// drawn at its live position below
		default:
			s.DrawRect(vp.Project(p.Box()), '█', core.ColorPlatform)
		}
	}
	for _, pl := range m.movers {
		s.DrawRect(vp.Project(pl.Box()), '▒', core.ColorMoving)
	}

	if !m.showLabels {
		return
	}
	for i, p := range m.layout.Elevated() {
		r := vp.Project(p.Box())
		s.DrawText(r.X, max(r.Y-1, 0), fmt.Sprintf("%d", i+1), core.ColorReach)
	}
}

func (m PreviewModel) statusLine() string {
	dim := colorStyles[core.ColorDim]
	text := colorStyles[core.ColorText]

	parts := []string{
		text.Render(fmt.Sprintf("variant %d", m.opts.Variant)),
		dim.Render(fmt.Sprintf("seed %#x", m.opts.Seed)),
		dim.Render(fmt.Sprintf("attempts %d", m.layout.Attempts)),
	}
	if m.layout.Fallback {
		parts = append(parts, colorStyles[core.ColorReach].Render("fallback"))
	}
	for _, pl := range m.movers {
		parts = append(parts, colorStyles[core.ColorMoving].Render(
			fmt.Sprintf("P%d %s %+.0fpx/s", pl.Index, pl.Spec.Mode, pl.Spec.VelocityX)))
	}
	if m.status != nil {
		parts = append(parts, colorStyles[core.ColorAlert].Render(m.status.Error()))
	} else {
		parts = append(parts, colorStyles[core.ColorPlatform].Render("valid"))
	}
	if m.paused {
		parts = append(parts, colorStyles[core.ColorAlert].Render("PAUSED"))
	}
	return strings.Join(parts, dim.Render(" | "))
}

// View renders the current state to a string for display.
func (m PreviewModel) View() string {
	if m.quitting {
		return ""
	}

	m.draw()

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusLine(),
		RenderScreen(m.screen),
		"",
		helpStyle.Render(m.help.View(m.keys)),
	)
}

// RunPreview starts the preview program.
func RunPreview(gen *layout.Generator, planner *moving.Planner, opts PreviewOptions) error {
	p := tea.NewProgram(
		NewPreviewModel(gen, planner, opts),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
