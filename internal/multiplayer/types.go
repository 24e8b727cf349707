// Package multiplayer is the boundary between the pacing loop and whatever
// decides which frames to simulate.
//
// A Session accepts local input and answers every frame with an ordered list
// of requests (save, load, advance) that the caller executes against its
// simulation. Sessions never see the simulation itself; they only hold
// serialized cells, so the same sessions drive any deterministic game.
package multiplayer

import (
	"fmt"

	"github.com/vovakirdan/netpong/internal/core"
)

// PlayerHandle is an alias to core.PlayerHandle for convenience.
type PlayerHandle = core.PlayerHandle

// SessionState reports whether a session can advance frames.
type SessionState int

const (
	// StateSynchronizing means the session is still handshaking with its peer.
	StateSynchronizing SessionState = iota

	// StateRunning means AdvanceFrame may be called.
	StateRunning
)

// String returns a human-readable name for the state.
func (s SessionState) String() string {
	switch s {
	case StateSynchronizing:
		return "Synchronizing"
	case StateRunning:
		return "Running"
	default:
		return "Unknown"
	}
}

// MatchMode selects which session a match is played with.
type MatchMode int

const (
	// MatchModeLocal is couch play: one keyboard drives both paddles.
	MatchModeLocal MatchMode = iota

	// MatchModeSyncTest is local play where every frame is rolled back and
	// replayed to check determinism.
	MatchModeSyncTest

	// MatchModeOnline is two peers in a relay room.
	MatchModeOnline
)

// String returns a human-readable name for the match mode.
func (m MatchMode) String() string {
	switch m {
	case MatchModeLocal:
		return "local"
	case MatchModeSyncTest:
		return "synctest"
	case MatchModeOnline:
		return "online"
	default:
		return "unknown"
	}
}

// ParseMatchMode parses the name returned by MatchMode.String.
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "local":
		return MatchModeLocal, nil
	case "synctest":
		return MatchModeSyncTest, nil
	case "online":
		return MatchModeOnline, nil
	default:
		return 0, fmt.Errorf("multiplayer: unknown match mode %q", s)
	}
}
