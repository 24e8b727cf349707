package multiplayer

import (
	"fmt"

	"github.com/vovakirdan/netpong/internal/core"
)

// Session decides which frames the caller simulates.
//
// All methods are called from the single goroutine that owns the simulation.
type Session interface {
	// Poll exchanges pending network traffic. Called once per wall-clock tick.
	Poll()

	// AddLocalInput submits a local player's input for the current frame.
	// It fails with ErrInvalidHandle for a handle that is not local.
	AddLocalInput(handle PlayerHandle, in core.Input) error

	// AdvanceFrame returns the ordered requests for the next frame.
	// ErrPredictionThreshold means try again later; any error wrapping
	// core.ErrInvariant ends the match.
	AdvanceFrame() ([]Request, error)

	// State reports whether AdvanceFrame may be called.
	State() SessionState

	// FramesAhead reports how far the local peer runs ahead of the remote one.
	FramesAhead() int

	// LocalHandles lists the handles local input is submitted for.
	LocalHandles() []PlayerHandle

	// NumPlayers returns the number of player slots.
	NumPlayers() int

	// Events drains pending notifications.
	Events() []Event
}

func checkHandle(handle PlayerHandle, local []PlayerHandle) error {
	for _, h := range local {
		if h == handle {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrInvalidHandle, handle)
}

func allHandles(n int) []PlayerHandle {
	handles := make([]PlayerHandle, n)
	for i := range handles {
		handles[i] = PlayerHandle(i)
	}
	return handles
}
