// ABOUTME: Bubbletea model for the voice widget TUI
// ABOUTME: Defines widget state, key bindings and rendering
package ui

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/analysis"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	barWidth = 40
	// maxBar is the height of a full-scale byte bin at scale 1
	maxBar = 300.0
)

var sparks = []rune("▁▂▃▄▅▆▇█")

type keyMap struct {
	Quit     key.Binding
	Minimize key.Binding
	Capture  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Minimize: key.NewBinding(key.WithKeys("m", "tab"), key.WithHelp("m", "minimize")),
		Capture:  key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "talk")),
	}
}

// Model represents the TUI state
type Model struct {
	// Agent
	agentName  string
	intro      string
	position   string
	avatarPath string
	calendly   string

	// Session
	connected   bool
	socketReady bool
	agentState  string
	closedErr   string

	// Visualization
	expanded  analysis.BarHeights
	minimized analysis.BarHeights
	minimize  bool

	// Capture
	capturing bool
	sent      int

	lastError string
	width     int
	height    int
	quitting  bool

	keys     keyMap
	controls *Controls
}

// StatusMsg updates TUI state; nil and zero fields are left alone
type StatusMsg struct {
	Connected   *bool
	SocketReady *bool
	AgentState  string
	Closed      *string
	Error       string
	Capturing   *bool
	Sent        int
}

// ProfileMsg carries the agent profile once fetched
type ProfileMsg struct {
	Name       string
	Intro      string
	Position   string
	AvatarPath string
	Calendly   string
}

// BarsMsg carries one frame of bar heights
type BarsMsg struct {
	Expanded  analysis.BarHeights
	Minimized analysis.BarHeights
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		agentName:  "Voice agent",
		agentState: "THINKING",
		keys:       defaultKeys(),
		controls:   controls,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case BarsMsg:
		m.expanded = msg.Expanded
		m.minimized = msg.Minimized
	case StatusMsg:
		m.applyStatus(msg)
	case ProfileMsg:
		m.applyProfile(msg)
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.controls.quit()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Minimize):
		m.minimize = !m.minimize
	case key.Matches(msg, m.keys.Capture):
		if m.socketReady {
			m.controls.toggleCapture()
		}
	}
	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.SocketReady != nil {
		m.socketReady = *msg.SocketReady
	}
	if msg.AgentState != "" {
		m.agentState = msg.AgentState
	}
	if msg.Closed != nil {
		m.connected = false
		m.socketReady = false
		m.capturing = false
		m.closedErr = *msg.Closed
	}
	if msg.Error != "" {
		m.lastError = msg.Error
	}
	if msg.Capturing != nil {
		m.capturing = *msg.Capturing
	}
	if msg.Sent != 0 {
		m.sent = msg.Sent
	}
}

func (m *Model) applyProfile(msg ProfileMsg) {
	if msg.Name != "" {
		m.agentName = msg.Name
	}
	m.intro = msg.Intro
	m.position = msg.Position
	m.avatarPath = msg.AvatarPath
	m.calendly = msg.Calendly
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	stateColors = map[string]lipgloss.Color{
		"SPEAKING":  lipgloss.Color("42"),
		"LISTENING": lipgloss.Color("39"),
		"THINKING":  lipgloss.Color("220"),
	}
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Closing session...\n"
	}

	var body string
	if m.minimize {
		body = m.renderMinimized()
	} else {
		body = m.renderExpanded()
	}

	panel := panelStyle.Render(body)
	if m.width > 0 {
		panel = lipgloss.PlaceHorizontal(m.width, m.align(), panel)
	}
	return panel + "\n" + helpStyle.Render(m.renderHelp())
}

func (m Model) align() lipgloss.Position {
	switch m.position {
	case "left":
		return lipgloss.Left
	case "center":
		return lipgloss.Center
	default:
		return lipgloss.Right
	}
}

func (m Model) renderExpanded() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.agentName))
	b.WriteString("\n")
	if m.intro != "" {
		b.WriteString(valueStyle.Render(m.intro))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, h := range m.expanded {
		b.WriteString(barStyle.Render(renderBar(h, maxBar, barWidth)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Agent: "))
	b.WriteString(m.renderState())
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Socket: "))
	b.WriteString(valueStyle.Render(m.socketStatus()))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Mic: "))
	mic := "off"
	if m.capturing {
		mic = fmt.Sprintf("streaming (%d chunks sent)", m.sent)
	}
	b.WriteString(valueStyle.Render(mic))

	if m.avatarPath != "" {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Avatar: "))
		b.WriteString(valueStyle.Render(m.avatarPath))
	}
	if m.calendly != "" {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Book a call: "))
		b.WriteString(valueStyle.Render(m.calendly))
	}
	if m.lastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(truncate(m.lastError, 60)))
	}
	return b.String()
}

func (m Model) renderMinimized() string {
	return fmt.Sprintf("%s %s %s",
		titleStyle.Render(m.agentName),
		barStyle.Render(renderSparks(m.minimized, maxBar*0.2)),
		m.renderState())
}

func (m Model) renderState() string {
	style := lipgloss.NewStyle().Bold(true)
	if c, ok := stateColors[m.agentState]; ok {
		style = style.Foreground(c)
	}
	return style.Render(m.agentState)
}

func (m Model) socketStatus() string {
	switch {
	case m.closedErr != "":
		return "closed: " + m.closedErr
	case !m.connected:
		return "disconnected"
	case m.socketReady:
		return "ready"
	default:
		return "connecting"
	}
}

func (m Model) renderHelp() string {
	return fmt.Sprintf("%s  %s  %s",
		m.keys.Capture.Help().Key+":"+m.keys.Capture.Help().Desc,
		m.keys.Minimize.Help().Key+":"+m.keys.Minimize.Help().Desc,
		m.keys.Quit.Help().Key+":"+m.keys.Quit.Help().Desc)
}

// renderBar draws a horizontal bar of width cells for value out of max
func renderBar(value, max float64, width int) string {
	filled := int(value / max * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// renderSparks draws one block glyph per bar
func renderSparks(bars analysis.BarHeights, max float64) string {
	var b strings.Builder
	for _, h := range bars {
		i := int(h / max * float64(len(sparks)-1))
		if i < 0 {
			i = 0
		}
		if i >= len(sparks) {
			i = len(sparks) - 1
		}
		b.WriteRune(sparks[i])
	}
	return b.String()
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
