// Package audio plays the bounce cues. Playback is fire-and-forget: nothing
// in the simulation waits for or depends on a sound.
package audio

import "github.com/vovakirdan/netpong/internal/games/pong"

// Player plays cues.
type Player interface {
	Play(cue pong.Cue)
	Close()
}

// Silent discards every cue. Used headless, over SSH and in tests.
type Silent struct{}

// Play does nothing.
func (Silent) Play(pong.Cue) {}

// Close does nothing.
func (Silent) Close() {}
