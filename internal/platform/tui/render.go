package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/games/pong"
)

// cellClass groups runes that share a style.
type cellClass int

const (
	classText cellClass = iota
	classPaddle
	classBall
	classNet
	classFrame
)

// classStyles maps cell classes to lipgloss styles.
var classStyles = map[cellClass]lipgloss.Style{
	classText:   lipgloss.NewStyle(),
	classPaddle: lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	classBall:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	classNet:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	classFrame:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
}

func classify(r rune) cellClass {
	switch r {
	case pong.PaddleChar:
		return classPaddle
	case pong.BallChar:
		return classBall
	case pong.NetChar:
		return classNet
	case '┌', '┐', '└', '┘', '─':
		return classFrame
	default:
		return classText
	}
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells of the same class to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			start := classify(s.Get(x, y))

			// Collect consecutive cells of the same class
			var run strings.Builder
			for x < s.Width() {
				r := s.Get(x, y)
				if classify(r) != start {
					break
				}
				run.WriteRune(r)
				x++
			}

			sb.WriteString(classStyles[start].Render(run.String()))
		}
	}
	return sb.String()
}
