package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/netpong/internal/core"
)

// Action is a non-paddle command derived from a key.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionBack
	ActionConfirm
	ActionNextMode
	ActionHistory
)

// KeyMapper translates Bubble Tea key messages to paddle keys and actions.
// This centralizes key bindings and makes them testable.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapPaddleKey translates a key message to a paddle control.
func (km *KeyMapper) MapPaddleKey(msg tea.KeyMsg) (core.Key, bool) {
	switch msg.String() {
	case "w", "W":
		return core.KeyW, true
	case "s", "S":
		return core.KeyS, true
	case "up", "k":
		return core.KeyUp, true
	case "down", "j":
		return core.KeyDown, true
	}
	return 0, false
}

// MapAction translates a key message to an action.
// Printable keys are never actions: the lobby needs them for room codes.
func (km *KeyMapper) MapAction(msg tea.KeyMsg) Action {
	switch msg.String() {
	case "ctrl+c":
		return ActionQuit
	case "esc":
		return ActionBack
	case "enter":
		return ActionConfirm
	case "tab":
		return ActionNextMode
	case "ctrl+t":
		return ActionHistory
	}
	return ActionNone
}

// IsRoomCodeRune reports whether r may appear in a room code.
func IsRoomCodeRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
