package pong

import "github.com/vovakirdan/netpong/internal/core"

// FrameChecksum records the checksum computed for a frame.
type FrameChecksum struct {
	Frame    int32
	Checksum uint16
}

// State is the entire mutable simulation: the unit of save and restore.
// It owns its paddles and ball by value; sessions only ever see serialized copies.
type State struct {
	Frame    int32
	Left     Paddle
	Right    Paddle
	Ball     Ball
	CueIndex uint8

	// Bookkeeping, excluded from the checksummed payload.
	LastChecksum     FrameChecksum
	PeriodicChecksum FrameChecksum
}

// New returns the state at the start of a match.
func New() *State {
	return &State{
		Left:  NewPaddle(),
		Right: NewPaddle(),
		Ball:  NewBall(),
	}
}

// Advance runs one logical frame with the given per-player inputs.
//
// Every non-disconnected source contributes its bits to both paddles, so the
// same call works for one local input steering both paddles and for one
// confirmed input per peer. It returns the bounce cue to play, if any.
func (s *State) Advance(inputs []core.PlayerInput) (Cue, bool) {
	s.Frame++

	var merged core.Input
	for _, in := range inputs {
		merged |= in.Effective()
	}
	s.Left.ResolveVelocity(merged.Has(core.InputLeftUp), merged.Has(core.InputLeftDown))
	s.Right.ResolveVelocity(merged.Has(core.InputRightUp), merged.Has(core.InputRightDown))

	s.Ball.Integrate()
	s.Left.Integrate()
	s.Right.Integrate()

	if !s.Ball.ChangedDirection {
		return 0, false
	}
	cue := Cue(s.CueIndex)
	s.CueIndex ^= 1
	return cue, true
}

// Side names a paddle.
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

// String returns a human-readable name for the side.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "none"
	}
}

// Outcome is the result of checking a frame for a point.
type Outcome struct {
	Scorer    Side // Side that scored this frame, SideNone if nobody did
	MatchOver bool // Scorer reached ScoreMax
}

// ApplyScoring awards a point when the ball has crossed an edge away from the
// defending paddle, then recenters the ball. It runs after Advance, never inside it.
func ApplyScoring(s *State) Outcome {
	if s.Ball.X > EdgeRight && s.Ball.MissedPaddle(s.Right.Pos) {
		won := s.Left.ScorePoint()
		s.Ball.ResetPosition()
		return Outcome{Scorer: SideLeft, MatchOver: won}
	}

	if s.Ball.X < EdgeLeft && s.Ball.MissedPaddle(s.Left.Pos) {
		won := s.Right.ScorePoint()
		s.Ball.ResetPosition()
		return Outcome{Scorer: SideRight, MatchOver: won}
	}

	return Outcome{}
}

// Winner returns the side that has reached ScoreMax, if any.
func (s *State) Winner() Side {
	switch {
	case s.Left.Score >= ScoreMax:
		return SideLeft
	case s.Right.Score >= ScoreMax:
		return SideRight
	default:
		return SideNone
	}
}
