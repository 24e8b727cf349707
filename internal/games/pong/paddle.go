package pong

// Paddle is one player's paddle and score.
type Paddle struct {
	Score int32
	Pos   int32
	Vel   int32
}

// NewPaddle returns a paddle at the bottom limit with no score and no velocity.
func NewPaddle() Paddle {
	return Paddle{Pos: PaddleBottomLimit}
}

// ResolveVelocity sets the velocity from this frame's up/down intent.
// Up alone moves toward the bottom limit, down alone toward the top limit,
// anything else stops the paddle.
func (p *Paddle) ResolveVelocity(up, down bool) {
	switch {
	case up && !down:
		p.Vel = -PaddleStep
	case down && !up:
		p.Vel = PaddleStep
	default:
		p.Vel = 0
	}
}

// Integrate applies velocity to position.
// A move that would leave [PaddleBottomLimit, PaddleTopLimit] is refused
// outright rather than clamped afterwards.
func (p *Paddle) Integrate() {
	next := p.Pos + p.Vel
	switch {
	case p.Vel > 0 && p.Pos < PaddleTopLimit && next <= PaddleTopLimit:
		p.Pos = next
	case p.Vel < 0 && p.Pos >= PaddleBottomLimit && next >= PaddleBottomLimit:
		p.Pos = next
	}
}

// ScorePoint adds one point and reports whether the match is won.
func (p *Paddle) ScorePoint() bool {
	p.Score++
	return p.Score >= ScoreMax
}
