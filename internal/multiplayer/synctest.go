package multiplayer

import (
	"fmt"

	"github.com/vovakirdan/netpong/internal/core"
)

// SyncTestSession checks that the simulation is deterministic.
//
// Every frame it rolls back checkDistance frames and replays them with the
// recorded inputs, then compares the checksums saved during the replay with
// those saved the first time through. Any difference is a desync.
type SyncTestSession struct {
	handles       []PlayerHandle
	checkDistance int32

	frame   int32 // Next frame to simulate
	pending []core.Input
	inputs  map[int32][]core.PlayerInput
	sums    map[int32]uint16 // Checksums from the first run
	cells   *cellRing

	firstRun []check // Saves to record on the next call
	replayed []check // Saves to verify on the next call
	started  bool

	events []Event
}

type check struct {
	frame int32
	cell  *Cell
}

// NewSyncTestSession creates a determinism harness for the given number of
// local players. A checkDistance of 0 disables rollback.
func NewSyncTestSession(players, checkDistance int) *SyncTestSession {
	players = max(1, players)
	checkDistance = max(0, checkDistance)
	return &SyncTestSession{
		handles:       allHandles(players),
		checkDistance: int32(checkDistance), //nolint:gosec // small config value
		pending:       make([]core.Input, players),
		inputs:        make(map[int32][]core.PlayerInput),
		sums:          make(map[int32]uint16),
		cells:         newCellRing(checkDistance + 2),
	}
}

// Poll does nothing; there is no network.
func (s *SyncTestSession) Poll() {}

// AddLocalInput records input for the current frame.
func (s *SyncTestSession) AddLocalInput(handle PlayerHandle, in core.Input) error {
	if err := checkHandle(handle, s.handles); err != nil {
		return err
	}
	s.pending[handle] = in
	return nil
}

// AdvanceFrame verifies the previous call's saves and returns the requests
// for the next frame: an optional rollback and replay, then the new frame.
func (s *SyncTestSession) AdvanceFrame() ([]Request, error) {
	if err := s.verify(); err != nil {
		return nil, err
	}

	var reqs []Request
	if !s.started {
		s.started = true
		cell := s.cells.at(0)
		reqs = append(reqs, SaveRequest{Frame: 0, Cell: cell})
		s.firstRun = append(s.firstRun, check{frame: 0, cell: cell})
	}

	if d := s.checkDistance; d > 0 && s.frame >= d {
		start := s.frame - d
		reqs = append(reqs, LoadRequest{Frame: start, Cell: s.cells.at(start)})
		for f := start; f < s.frame; f++ {
			cell := s.cells.at(f + 1)
			reqs = append(reqs,
				AdvanceRequest{Inputs: s.inputs[f]},
				SaveRequest{Frame: f + 1, Cell: cell},
			)
			s.replayed = append(s.replayed, check{frame: f + 1, cell: cell})
		}
	}

	inputs := make([]core.PlayerInput, len(s.pending))
	for i, in := range s.pending {
		inputs[i] = core.PlayerInput{Input: in, Status: core.StatusConfirmed}
		s.pending[i] = 0
	}
	s.inputs[s.frame] = inputs

	cell := s.cells.at(s.frame + 1)
	reqs = append(reqs,
		AdvanceRequest{Inputs: inputs},
		SaveRequest{Frame: s.frame + 1, Cell: cell},
	)
	s.firstRun = append(s.firstRun, check{frame: s.frame + 1, cell: cell})
	s.frame++

	delete(s.inputs, s.frame-s.checkDistance-1)
	return reqs, nil
}

// verify checks the saves requested by the previous call.
func (s *SyncTestSession) verify() error {
	defer func() {
		s.firstRun = s.firstRun[:0]
		s.replayed = s.replayed[:0]
	}()

	for _, c := range s.replayed {
		if !c.cell.holds(c.frame) {
			return fmt.Errorf("%w: frame %d", ErrMissingSave, c.frame)
		}
		want, ok := s.sums[c.frame]
		if !ok {
			continue
		}
		if got := c.cell.Checksum(); got != want {
			s.events = append(s.events, DesyncDetectedEvent{Frame: c.frame, Local: got, Remote: want})
			return fmt.Errorf("%w: frame %d replayed as %04x, first run %04x", ErrMismatchedChecksum, c.frame, got, want)
		}
	}

	for _, c := range s.firstRun {
		if !c.cell.holds(c.frame) {
			return fmt.Errorf("%w: frame %d", ErrMissingSave, c.frame)
		}
		s.sums[c.frame] = c.cell.Checksum()
	}
	delete(s.sums, s.frame-s.checkDistance-1)
	return nil
}

// CurrentFrame returns the next frame the session will simulate.
func (s *SyncTestSession) CurrentFrame() int32 { return s.frame }

// State is always StateRunning.
func (s *SyncTestSession) State() SessionState { return StateRunning }

// FramesAhead is always 0.
func (s *SyncTestSession) FramesAhead() int { return 0 }

// LocalHandles returns every handle.
func (s *SyncTestSession) LocalHandles() []PlayerHandle { return s.handles }

// NumPlayers returns the number of players.
func (s *SyncTestSession) NumPlayers() int { return len(s.handles) }

// Events drains pending notifications.
func (s *SyncTestSession) Events() []Event {
	out := s.events
	s.events = nil
	return out
}
