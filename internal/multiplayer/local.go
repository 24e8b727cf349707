package multiplayer

import "github.com/vovakirdan/netpong/internal/core"

// LocalSession plays every player on this machine. Every input is confirmed
// and the session never rolls back.
type LocalSession struct {
	handles []PlayerHandle
	inputs  []core.Input
}

// NewLocalSession creates a session with the given number of local players.
func NewLocalSession(players int) *LocalSession {
	players = max(1, players)
	return &LocalSession{
		handles: allHandles(players),
		inputs:  make([]core.Input, players),
	}
}

// Poll does nothing; there is no network.
func (s *LocalSession) Poll() {}

// AddLocalInput records input for the current frame.
func (s *LocalSession) AddLocalInput(handle PlayerHandle, in core.Input) error {
	if err := checkHandle(handle, s.handles); err != nil {
		return err
	}
	s.inputs[handle] = in
	return nil
}

// AdvanceFrame advances with the recorded inputs. A player who submitted
// nothing this frame contributes no input.
func (s *LocalSession) AdvanceFrame() ([]Request, error) {
	inputs := make([]core.PlayerInput, len(s.inputs))
	for i, in := range s.inputs {
		inputs[i] = core.PlayerInput{Input: in, Status: core.StatusConfirmed}
		s.inputs[i] = 0
	}
	return []Request{AdvanceRequest{Inputs: inputs}}, nil
}

// State is always StateRunning.
func (s *LocalSession) State() SessionState { return StateRunning }

// FramesAhead is always 0.
func (s *LocalSession) FramesAhead() int { return 0 }

// LocalHandles returns every handle.
func (s *LocalSession) LocalHandles() []PlayerHandle { return s.handles }

// NumPlayers returns the number of players.
func (s *LocalSession) NumPlayers() int { return len(s.handles) }

// Events is always empty.
func (s *LocalSession) Events() []Event { return nil }
