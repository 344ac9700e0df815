package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/latch"
)

const (
	graphWidth      = 72
	graphHeight     = 12
	historyCapacity = 2000
	eventLogLines   = 8
)

type TickMsg time.Time

// LiveModel steps a latch in real time and shows its output, clock and
// mode changes.
type LiveModel struct {
	latch      *latch.Model
	integrator dynamo.Integrator
	clock      dynamo.Controller

	x0       dynamo.State
	state    dynamo.State
	u        dynamo.Control
	step     int
	steps    int
	dt       float64
	perFrame int

	running bool
	theme   Theme
	title   string
	err     error

	output []float64
	clk    []float64
}

// NewLiveModel starts the view paused at t=0 with the output at x0.
// steps bounds the run; stepping stops once it is reached.
func NewLiveModel(m *latch.Model, integ dynamo.Integrator, clock dynamo.Controller, x0 dynamo.State, dt float64, steps int, title string) LiveModel {
	m.Reset()
	return LiveModel{
		latch:      m,
		integrator: integ,
		clock:      clock,
		x0:         x0.Clone(),
		state:      x0.Clone(),
		steps:      steps,
		dt:         dt,
		perFrame:   max(1, steps/300),
		running:    true,
		theme:      Themes[0],
		title:      title,
		output:     make([]float64, 0, min(steps, historyCapacity)),
		clk:        make([]float64, 0, min(steps, historyCapacity)),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "t":
			m.theme = NextTheme(m.theme)
		case "+", "=":
			m.perFrame *= 2
		case "-":
			m.perFrame = max(1, m.perFrame/2)
		case "n":
			m.advance(1)
		}
	case TickMsg:
		if m.running {
			m.advance(m.perFrame)
		}
		return m, tick()
	}
	return m, nil
}

func (m *LiveModel) advance(n int) {
	for i := 0; i < n; i++ {
		if m.err != nil || m.step >= m.steps {
			m.running = false
			return
		}
		t := float64(m.step) * m.dt
		m.u = m.clock.Compute(m.state, t)
		next := m.integrator.Step(m.latch, m.state, m.u, t, m.dt)
		if !next.IsValid() {
			m.err = &dynamo.SimulationError{Step: m.step, Time: t, State: next, Wrapped: dynamo.ErrInvalidState}
			return
		}
		m.state = next
		m.step++

		m.output = appendCapped(m.output, m.state[0])
		if len(m.u) > 0 {
			m.clk = appendCapped(m.clk, m.u[0])
		}
	}
}

func appendCapped(s []float64, v float64) []float64 {
	if len(s) >= historyCapacity {
		s = s[1:]
	}
	return append(s, v)
}

func (m *LiveModel) reset() {
	m.latch.Reset()
	m.state = m.x0.Clone()
	m.u = nil
	m.step = 0
	m.err = nil
	m.output = m.output[:0]
	m.clk = m.clk[:0]
	m.running = true
}

// WithTheme selects a color theme by name; see ThemeNames.
func (m LiveModel) WithTheme(name string) LiveModel {
	m.theme = GetTheme(name)
	return m
}

// Step is the number of integration steps taken so far.
func (m LiveModel) Step() int { return m.step }

func (m LiveModel) Output() []float64 { return m.output }

func (m LiveModel) Running() bool { return m.running }

func (m LiveModel) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Accent).Render(m.title)
	status := StatusRunning.Render("● RUNNING")
	if !m.running {
		status = StatusPaused.Render("‖ PAUSED")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", status)

	graph := Subtle.Render("waiting for first step")
	if len(m.output) > 0 {
		graph = lipgloss.NewStyle().Foreground(m.theme.Primary).
			Render(PlotTrace(m.output, "output (V)", graphWidth, graphHeight))
	}

	t := float64(m.step) * m.dt
	stats := []string{
		KeyValue("time", t),
		KeyValue("step", fmt.Sprintf("%d/%d", m.step, m.steps)),
		KeyValue("mode", m.latch.State()),
		KeyValue("clock", m.latch.Inputs().Clk),
		KeyValue("fall tau", m.latch.FallTau()),
		KeyValue("rise tau", m.latch.RiseTau()),
		KeyValue("steps/frame", m.perFrame),
		"",
		ProgressBar(float64(m.step)/float64(max(m.steps, 1)), 30),
		"",
		"clk " + Sparkline(m.clk, 30),
	}
	if len(m.state) > 0 {
		stats = append([]string{KeyValue("output", m.state[0])}, stats...)
	}

	var log []string
	events := m.latch.Transitions()
	if len(events) > eventLogLines {
		events = events[len(events)-eventLogLines:]
	}
	for _, ev := range events {
		c := m.theme.Falling
		if ev.To == latch.EvaluateLowLowHigh || ev.To == latch.Precharge {
			c = m.theme.Rising
		}
		log = append(log, lipgloss.NewStyle().Foreground(c).Render(ev.String()))
	}
	if len(log) == 0 {
		log = append(log, Subtle.Render("no transitions yet"))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		Panel.Render(graph),
		Panel.Render(strings.Join(stats, "\n")),
	)

	parts := []string{header, body, Panel.Render(HeaderStyle.Render("transitions") + "\n" + strings.Join(log, "\n"))}
	if m.err != nil {
		parts = append(parts, ErrorStyle.Render(m.err.Error()))
	}
	parts = append(parts, KeyHint.Render("space pause · n step · r reset · +/- speed · t theme ("+m.theme.Name+") · q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// RunLive blocks until the view is closed.
func RunLive(m LiveModel) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
