// Package pong implements the deterministic two-player Pong simulation
// driven by a rollback-capable session.
//
// All simulation arithmetic is integer-only so that two peers, or one peer
// replaying frames after a rollback, produce bit-identical states.
package pong

// Playfield geometry, in simulation units. Both peers must agree on these,
// so they are compile-time constants rather than configuration.
const (
	ScreenWidth  = 512
	ScreenHeight = 342

	EdgeLeft   int32 = 1
	EdgeRight  int32 = 502
	EdgeBottom int32 = 1
	EdgeTop    int32 = 332

	PaddleHeight      int32 = 50
	PaddleWidth       int32 = 10
	PaddleBottomLimit int32 = 1
	PaddleTopLimit    int32 = 291

	// PaddleStep is the paddle speed for every input source.
	PaddleStep int32 = 2

	InitialVelocity int32 = 3
	MiddleX         int32 = 256
	MiddleY         int32 = 171

	// ScoreMax is the score that wins a match.
	ScoreMax int32 = 5

	// ChecksumInterval is how often, in frames, Save records a periodic checksum.
	ChecksumInterval int32 = 60
)

// Cue identifies one of the two alternating bounce sounds.
type Cue uint8

const (
	Cue0 Cue = 0
	Cue1 Cue = 1
)
