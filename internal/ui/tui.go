// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and forwards widget updates to it
package ui

import (
	"log"
	"sync"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/analysis"
	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries user intents from the TUI back to the app
type Controls struct {
	Quit    chan struct{}
	Capture chan struct{}

	quitOnce sync.Once
}

// NewControls creates a new controls handler
func NewControls() *Controls {
	return &Controls{
		Quit:    make(chan struct{}),
		Capture: make(chan struct{}, 1),
	}
}

func (c *Controls) quit() {
	if c == nil {
		return
	}
	c.quitOnce.Do(func() { close(c.Quit) })
}

func (c *Controls) toggleCapture() {
	if c == nil {
		return
	}
	select {
	case c.Capture <- struct{}{}:
	default:
	}
}

// TUI runs the widget program
type TUI struct {
	program *tea.Program
	bars    chan BarsMsg
	updates chan tea.Msg
	done    chan struct{}
}

// New creates the TUI; Run starts it
func New(controls *Controls) *TUI {
	t := &TUI{
		program: tea.NewProgram(NewModel(controls), tea.WithAltScreen()),
		bars:    make(chan BarsMsg, 1),
		updates: make(chan tea.Msg, 64),
		done:    make(chan struct{}),
	}
	go t.forward()
	return t
}

// forward hands queued updates to the program so callers never block
func (t *TUI) forward() {
	for {
		select {
		case msg := <-t.updates:
			t.program.Send(msg)
		case msg := <-t.bars:
			t.program.Send(msg)
		case <-t.done:
			return
		}
	}
}

// Run blocks until the user quits or Stop is called
func (t *TUI) Run() error {
	defer close(t.done)
	_, err := t.program.Run()
	return err
}

// Stop ends the program
func (t *TUI) Stop() {
	t.program.Quit()
}

func (t *TUI) send(msg tea.Msg) {
	select {
	case t.updates <- msg:
	default:
		log.Printf("TUI update queue full, dropping %T", msg)
	}
}

// Bars publishes one frame of bar heights; frames the program has not
// caught up with are skipped
func (t *TUI) Bars(expanded, minimized analysis.BarHeights) {
	select {
	case t.bars <- BarsMsg{Expanded: expanded, Minimized: minimized}:
	default:
	}
}

// Status publishes a status change
func (t *TUI) Status(msg StatusMsg) {
	t.send(msg)
}

// Profile publishes the agent profile
func (t *TUI) Profile(msg ProfileMsg) {
	t.send(msg)
}
