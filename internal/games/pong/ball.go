package pong

// Ball is the ball's position and velocity.
// Velocity components keep a fixed magnitude; bounces only flip their sign.
type Ball struct {
	X, Y   int32
	VX, VY int32

	// ChangedDirection is set when the last Integrate bounced the ball.
	ChangedDirection bool
}

// NewBall returns a ball at the center moving at the initial velocity on both axes.
func NewBall() Ball {
	return Ball{
		X:  MiddleX,
		Y:  MiddleY,
		VX: InitialVelocity,
		VY: InitialVelocity,
	}
}

// Integrate moves the ball by its velocity and bounces it off the edges.
// Position is not clamped: the ball may sit past an edge for one frame,
// which is how the caller detects a miss.
func (b *Ball) Integrate() {
	b.X += b.VX
	b.Y += b.VY
	b.ChangedDirection = false

	if b.X > EdgeRight || b.X < EdgeLeft {
		b.VX = -b.VX
		b.ChangedDirection = true
	}
	if b.Y > EdgeTop || b.Y < EdgeBottom {
		b.VY = -b.VY
		b.ChangedDirection = true
	}
}

// MissedPaddle reports whether the ball's y lies outside the paddle span
// [paddlePos, paddlePos+PaddleHeight]. Both ends are inclusive.
func (b *Ball) MissedPaddle(paddlePos int32) bool {
	return b.Y < paddlePos || b.Y > paddlePos+PaddleHeight
}

// ResetPosition puts the ball back in the middle.
// Velocity is left alone so the next volley keeps its direction.
func (b *Ball) ResetPosition() {
	b.X = MiddleX
	b.Y = MiddleY
}
