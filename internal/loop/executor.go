package loop

import (
	"fmt"

	"github.com/vovakirdan/netpong/internal/games/pong"
	"github.com/vovakirdan/netpong/internal/multiplayer"
)

// FrameCue is a cue raised while simulating a frame.
type FrameCue struct {
	Frame int32
	Cue   pong.Cue
}

// Effects collects what executing a batch of requests produced
// besides the new state.
type Effects struct {
	Cues     []FrameCue
	Advanced int // Advance requests executed, including resimulated ones
	Points   []pong.Side
}

// Execute runs requests against s in order. Every Advance is followed by
// scoring so that a resimulated frame scores exactly as it did the first time.
// An error wraps core.ErrInvariant and leaves s in an unspecified state.
func Execute(s *pong.State, reqs []multiplayer.Request) (Effects, error) {
	var fx Effects
	for _, req := range reqs {
		switch r := req.(type) {
		case multiplayer.SaveRequest:
			snap, err := s.Save(r.Frame)
			if err != nil {
				return fx, err
			}
			if r.Cell != nil {
				r.Cell.Save(snap.Frame, snap.Data, snap.Checksum)
			}

		case multiplayer.LoadRequest:
			if r.Cell == nil || r.Cell.Empty() {
				return fx, fmt.Errorf("%w: frame %d", pong.ErrNoSnapshot, r.Frame)
			}
			snap := pong.Snapshot{Frame: r.Cell.Frame(), Data: r.Cell.Data(), Checksum: r.Cell.Checksum()}
			if err := s.Load(&snap); err != nil {
				return fx, err
			}
			if s.Frame != r.Frame {
				return fx, fmt.Errorf("%w: load of frame %d restored frame %d", pong.ErrFrameMismatch, r.Frame, s.Frame)
			}

		case multiplayer.AdvanceRequest:
			if cue, ok := s.Advance(r.Inputs); ok {
				fx.Cues = append(fx.Cues, FrameCue{Frame: s.Frame, Cue: cue})
			}
			if out := pong.ApplyScoring(s); out.Scorer != pong.SideNone {
				fx.Points = append(fx.Points, out.Scorer)
			}
			fx.Advanced++
		}
	}
	return fx, nil
}
