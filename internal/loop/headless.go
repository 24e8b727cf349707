package loop

import (
	"errors"

	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/games/pong"
	"github.com/vovakirdan/netpong/internal/multiplayer"
)

var errNoLocalHandles = errors.New("loop: session has no local handles")

// InputSource supplies the local input for a frame.
type InputSource func(frame int32) core.Input

// FrameReport describes one simulated frame of a headless run.
type FrameReport struct {
	Frame    int32
	Checksum uint16
	Left     int32
	Right    int32
	Cues     []FrameCue
}

// RunHeadless drives an offline session for up to frames frames without a
// clock, feeding every local handle from input. report, if set, is called
// after each frame. The run stops early once a side wins.
func RunHeadless(sess multiplayer.Session, frames int, input InputSource, report func(FrameReport)) (*pong.State, error) {
	state := pong.New()
	handles := sess.LocalHandles()
	if len(handles) == 0 {
		return state, errNoLocalHandles
	}

	for i := 0; i < frames; i++ {
		sess.Poll()
		in := input(state.Frame + 1)
		if err := sess.AddLocalInput(handles[0], in); err != nil {
			return state, err
		}

		reqs, err := sess.AdvanceFrame()
		if errors.Is(err, multiplayer.ErrPredictionThreshold) {
			continue
		}
		if err != nil {
			return state, err
		}

		fx, err := Execute(state, reqs)
		if err != nil {
			return state, err
		}

		if report != nil {
			report(FrameReport{
				Frame:    state.Frame,
				Checksum: state.Checksum(),
				Left:     state.Left.Score,
				Right:    state.Right.Score,
				Cues:     fx.Cues,
			})
		}
		if state.Winner() != pong.SideNone {
			break
		}
	}
	return state, nil
}
