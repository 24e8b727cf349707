package multiplayer

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/transport"
)

// Peer is the link to the other player. transport.Socket implements it.
type Peer interface {
	Send(m transport.Message) error
	Poll() []transport.Message
}

// LockstepConfig configures a LockstepSession.
type LockstepConfig struct {
	LocalHandle   PlayerHandle
	InputDelay    int   // Frames between sampling local input and simulating it
	ChecksumEvery int32 // Frames between checksum exchanges; 0 disables them

	// StallPolls is how many consecutive polls may pass without a message
	// from the peer before it is treated as disconnected. Zero waits forever.
	StallPolls int
}

// LockstepSession is a two-player delay-based session.
//
// Local input is scheduled InputDelay frames ahead and sent to the peer. A
// frame is simulated only once both inputs for it are known, so every input
// is confirmed, nothing is predicted, and nothing is ever rolled back.
//
// A peer that stays silent for StallPolls polls, whether it never answers
// the handshake or stops sending mid-match, is reported with a
// PeerDisconnectedEvent and its inputs become Disconnected from then on.
type LockstepSession struct {
	peer   Peer
	local  PlayerHandle
	remote PlayerHandle
	delay  int32
	every  int32
	stall  int

	silent       int // Consecutive polls without a peer message
	state        SessionState
	disconnected bool

	frame      int32 // Next frame to simulate
	pending    core.Input
	localIn    map[int32]core.Input
	remoteIn   map[int32]core.Input
	remoteHigh int32
	remoteAdv  int

	checkCell  Cell
	checkFrame int32 // Frame whose save is outstanding, -1 if none
	localSums  map[int32]uint16
	remoteSums map[int32]uint16
	desync     error

	events []Event
}

// NewLockstepSession creates a session talking to peer.
func NewLockstepSession(peer Peer, cfg LockstepConfig) (*LockstepSession, error) {
	if cfg.LocalHandle != core.PlayerLeft && cfg.LocalHandle != core.PlayerRight {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, cfg.LocalHandle)
	}

	s := &LockstepSession{
		peer:       peer,
		local:      cfg.LocalHandle,
		remote:     1 - cfg.LocalHandle,
		delay:      int32(max(0, cfg.InputDelay)), //nolint:gosec // small config value
		every:      max(0, cfg.ChecksumEvery),
		stall:      max(0, cfg.StallPolls),
		state:      StateSynchronizing,
		localIn:    make(map[int32]core.Input),
		remoteIn:   make(map[int32]core.Input),
		checkFrame: -1,
		localSums:  make(map[int32]uint16),
		remoteSums: make(map[int32]uint16),
	}
	s.remoteHigh = s.delay - 1
	return s, nil
}

// Poll drains the peer link and keeps the handshake going.
func (s *LockstepSession) Poll() {
	msgs := s.peer.Poll()
	for _, m := range msgs {
		s.handle(m)
	}

	if len(msgs) > 0 {
		s.silent = 0
	} else if !s.disconnected && s.stall > 0 {
		s.silent++
		if s.silent >= s.stall {
			s.peerLost()
		}
	}

	if s.state == StateSynchronizing && !s.disconnected {
		_ = s.peer.Send(transport.Sync(s.local)) //nolint:errcheck // resent every poll until answered
	}
}

func (s *LockstepSession) handle(m transport.Message) {
	switch m.Type {
	case transport.MsgSync:
		if s.state == StateSynchronizing {
			// Answer once more so the peer leaves its handshake too.
			_ = s.peer.Send(transport.Sync(s.local)) //nolint:errcheck // the peer keeps asking if this is lost
			s.state = StateRunning
			s.events = append(s.events, SynchronizedEvent{})
		}

	case transport.MsgInput:
		if m.Frame < s.frame {
			return
		}
		s.remoteIn[m.Frame] = m.Input()
		s.remoteHigh = max(s.remoteHigh, m.Frame)
		s.remoteAdv = m.Advantage()

	case transport.MsgChecksum:
		s.remoteSums[m.Frame] = m.Payload
		s.compare(m.Frame)

	case transport.MsgPeerLeft:
		s.peerLost()
	}
}

// peerLost marks the remote peer gone. A peer that never finished the
// handshake will not; the local player plays on alone.
func (s *LockstepSession) peerLost() {
	if !s.disconnected {
		s.disconnected = true
		s.events = append(s.events, PeerDisconnectedEvent{Handle: s.remote})
	}
	s.state = StateRunning
}

func (s *LockstepSession) compare(frame int32) {
	local, okLocal := s.localSums[frame]
	remote, okRemote := s.remoteSums[frame]
	if !okLocal || !okRemote {
		return
	}
	delete(s.localSums, frame)
	delete(s.remoteSums, frame)

	if local != remote && s.desync == nil {
		s.events = append(s.events, DesyncDetectedEvent{Frame: frame, Local: local, Remote: remote})
		s.desync = fmt.Errorf("%w: frame %d local %04x remote %04x", ErrMismatchedChecksum, frame, local, remote)
	}
}

// AddLocalInput records the local player's input for the current frame.
func (s *LockstepSession) AddLocalInput(handle PlayerHandle, in core.Input) error {
	if handle != s.local {
		return fmt.Errorf("%w: %d is not local", ErrInvalidHandle, handle)
	}
	s.pending = in
	return nil
}

// AdvanceFrame returns the next frame once both inputs for it are known.
func (s *LockstepSession) AdvanceFrame() ([]Request, error) {
	if s.desync != nil {
		return nil, s.desync
	}
	if s.state != StateRunning {
		return nil, ErrPredictionThreshold
	}
	if err := s.publishChecksum(); err != nil {
		return nil, err
	}
	if s.desync != nil {
		return nil, s.desync
	}

	// Sample local input once per frame, however often this frame stalls.
	target := s.frame + s.delay
	if _, ok := s.localIn[target]; !ok {
		s.localIn[target] = s.pending
		if !s.disconnected {
			if err := s.peer.Send(transport.InputMsg(target, s.pending, s.advantage())); err != nil && !errors.Is(err, transport.ErrBacklog) {
				return nil, fmt.Errorf("multiplayer: send input for frame %d: %w", target, err)
			}
		}
	}

	remote, ok := s.remoteInput(s.frame)
	if !ok {
		return nil, ErrPredictionThreshold
	}

	inputs := make([]core.PlayerInput, 2)
	inputs[s.local] = core.PlayerInput{Input: s.localInput(s.frame), Status: core.StatusConfirmed}
	inputs[s.remote] = remote

	delete(s.localIn, s.frame)
	delete(s.remoteIn, s.frame)
	s.frame++

	reqs := []Request{AdvanceRequest{Inputs: inputs}}
	if s.every > 0 && s.frame%s.every == 0 && !s.disconnected {
		reqs = append(reqs, SaveRequest{Frame: s.frame, Cell: &s.checkCell})
		s.checkFrame = s.frame
	}
	return reqs, nil
}

// publishChecksum sends the checksum saved by the previous call's request.
func (s *LockstepSession) publishChecksum() error {
	if s.checkFrame < 0 {
		return nil
	}
	frame := s.checkFrame
	s.checkFrame = -1

	if !s.checkCell.holds(frame) {
		return fmt.Errorf("%w: frame %d", ErrMissingSave, frame)
	}
	sum := s.checkCell.Checksum()
	_ = s.peer.Send(transport.ChecksumMsg(frame, sum)) //nolint:errcheck // checksums are advisory on the wire
	s.localSums[frame] = sum
	s.compare(frame)
	return nil
}

func (s *LockstepSession) localInput(frame int32) core.Input {
	if frame < s.delay {
		return 0
	}
	return s.localIn[frame]
}

func (s *LockstepSession) remoteInput(frame int32) (core.PlayerInput, bool) {
	if frame < s.delay {
		return core.PlayerInput{Status: core.StatusConfirmed}, true
	}
	if in, ok := s.remoteIn[frame]; ok {
		return core.PlayerInput{Input: in, Status: core.StatusConfirmed}, true
	}
	if s.disconnected {
		return core.PlayerInput{Status: core.StatusDisconnected}, true
	}
	return core.PlayerInput{}, false
}

// CurrentFrame returns the next frame the session will simulate.
func (s *LockstepSession) CurrentFrame() int32 { return s.frame }

// State reports whether the handshake has completed.
func (s *LockstepSession) State() SessionState { return s.state }

// advantage is how far the newest local input runs ahead of the newest
// remote one. Latency alone makes it positive on both sides.
func (s *LockstepSession) advantage() int {
	return int(s.frame + s.delay - 1 - s.remoteHigh)
}

// FramesAhead reports how many frames the local peer runs ahead of the remote
// one, as half the difference between the two sides' advantages.
func (s *LockstepSession) FramesAhead() int {
	if s.disconnected {
		return 0
	}
	return max(0, (s.advantage()-s.remoteAdv)/2)
}

// LocalHandles returns the local handle.
func (s *LockstepSession) LocalHandles() []PlayerHandle { return []PlayerHandle{s.local} }

// NumPlayers is always 2.
func (s *LockstepSession) NumPlayers() int { return 2 }

// Events drains pending notifications.
func (s *LockstepSession) Events() []Event {
	out := s.events
	s.events = nil
	return out
}
