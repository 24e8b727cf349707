package multiplayer

import "github.com/vovakirdan/netpong/internal/core"

// Request is one step the caller must execute against its simulation.
// Requests from one AdvanceFrame call are executed in order.
type Request interface {
	request()
}

// SaveRequest asks the caller to serialize the simulation, which must be at
// Frame, into Cell.
type SaveRequest struct {
	Frame int32
	Cell  *Cell
}

func (SaveRequest) request() {}

// LoadRequest asks the caller to overwrite the simulation with the state
// held in Cell. This is the rollback.
type LoadRequest struct {
	Frame int32
	Cell  *Cell
}

func (LoadRequest) request() {}

// AdvanceRequest asks the caller to simulate one frame with these inputs,
// one per player handle.
type AdvanceRequest struct {
	Inputs []core.PlayerInput
}

func (AdvanceRequest) request() {}

// Event is a notification for the caller, drained with Session.Events.
type Event interface {
	sessionEvent()
}

// SynchronizedEvent is emitted once the peer handshake completes.
type SynchronizedEvent struct{}

func (SynchronizedEvent) sessionEvent() {}

// PeerDisconnectedEvent is emitted when a remote player leaves.
// From then on their input is reported as disconnected.
type PeerDisconnectedEvent struct {
	Handle PlayerHandle
}

func (PeerDisconnectedEvent) sessionEvent() {}

// DesyncDetectedEvent is emitted when two runs of the same frame disagree.
type DesyncDetectedEvent struct {
	Frame  int32
	Local  uint16
	Remote uint16
}

func (DesyncDetectedEvent) sessionEvent() {}
