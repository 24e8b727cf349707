// Package loop paces the simulation against the wall clock.
//
// A Driver owns the match: it moves between Lobby, Connecting and Playing,
// turns elapsed time into a whole number of logical frames, and executes the
// requests a session returns for each frame against the game state.
package loop

// Mode is the driver's position in the match lifecycle.
type Mode int

const (
	ModeLobby      Mode = iota // Waiting for a room
	ModeConnecting             // Waiting for the relay and an opponent
	ModePlaying                // Simulating frames
)

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeLobby:
		return "lobby"
	case ModeConnecting:
		return "connecting"
	case ModePlaying:
		return "playing"
	default:
		return "unknown"
	}
}
