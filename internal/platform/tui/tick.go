// Package tui provides the Bubble Tea front end for netpong.
// It maps terminal keys to paddle controls, drives the pacing loop from
// ticks, and renders the lobby, connecting and playing screens.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to drive the pacing loop.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends one tick message after a frame.
// The loop accumulates real elapsed time, so late ticks do not slow the game.
func tickCmd(fps int) tea.Cmd {
	interval := time.Second / time.Duration(max(1, fps))
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
