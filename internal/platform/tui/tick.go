// Package tui provides the Bubble Tea stepper for watching a factory run in
// the terminal, locally or over SSH.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to trigger a simulation step.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(stepsPerSecond int) tea.Cmd {
	if stepsPerSecond < 1 {
		stepsPerSecond = 30
	}
	interval := time.Second / time.Duration(stepsPerSecond)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
