package tui

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vovakirdan/rastercade/internal/core"
)

// PlayFunc runs the engine on screen until ctx is cancelled or no sequence
// is left. It is called on its own goroutine.
type PlayFunc func(ctx context.Context, screen core.Screen) error

// Session runs a PlayFunc in the background for one Bubble Tea program.
type Session struct {
	screen *Screen
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// StartSession starts play on screen.
func StartSession(parent context.Context, screen *Screen, play PlayFunc) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{screen: screen, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		s.err = play(ctx, screen)
	}()
	return s
}

// Stop asks the engine to end the active sequence.
func (s *Session) Stop() { s.cancel() }

// Done is closed once the engine returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the engine error. Only valid after Done is closed.
func (s *Session) Err() error { return s.err }

func (s *Session) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

// Model is the Bubble Tea model presenting a running engine.
type Model struct {
	session  *Session
	keys     KeyMap
	help     help.Model
	status   func() string
	rate     int
	stopping bool
	quitting bool
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithStatus shows the string returned by fn under the frame.
func WithStatus(fn func() string) ModelOption {
	return func(m *Model) {
		m.status = fn
	}
}

// WithKeyMap replaces the default key bindings.
func WithKeyMap(k KeyMap) ModelOption {
	return func(m *Model) {
		m.keys = k
	}
}

// NewModel creates a model for a running session.
func NewModel(session *Session, opts ...ModelOption) Model {
	m := Model{
		session: session,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		rate:    session.screen.Config().Output.Rate,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.rate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		k, quit := m.keys.Translate(msg)
		if quit {
			m.stopping = true
			m.session.Stop()
			return m, nil
		}
		m.session.screen.Dispatch(k)
		return m, nil

	case tea.WindowSizeMsg:
		// One line is kept for the status bar.
		m.session.screen.Resize(msg.Width, msg.Height-1)
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		if m.session.finished() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, tickCmd(m.rate)
	}

	return m, nil
}

// View renders the latest frame and the status bar.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.session.screen.View())
	b.WriteString("\n")
	status := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.status != nil {
		status = m.status() + "  " + status
	}
	if m.stopping {
		status = "stopping..."
	}
	b.WriteString(statusStyle.Render(status))
	return b.String()
}

// Run presents play on the local terminal until it returns or the user quits.
func Run(ctx context.Context, cfg core.Config, play PlayFunc, opts ...ModelOption) error {
	screen := NewScreen(cfg)
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		screen.Resize(w, h-1)
	}

	session := StartSession(ctx, screen, play)
	p := tea.NewProgram(NewModel(session, opts...), tea.WithAltScreen())

	_, err := p.Run()
	session.Stop()
	<-session.Done()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return session.Err()
}
