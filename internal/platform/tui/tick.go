// Package tui provides the Bubble Tea integration for the engine: a
// terminal Screen rendering frames as half-block characters, the program
// model driving it, a sequence picker, a run statistics view and SSH
// serving via Wish.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to refresh the view with the latest presented frame.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(rate int) tea.Cmd {
	if rate <= 0 {
		rate = 60
	}
	interval := time.Second / time.Duration(rate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
