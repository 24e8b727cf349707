package pong

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vovakirdan/netpong/internal/core"
)

// Snapshot errors. Both are invariant violations.
var (
	ErrFrameMismatch = fmt.Errorf("pong: save frame does not match simulation frame: %w", core.ErrInvariant)
	ErrNoSnapshot    = fmt.Errorf("pong: no snapshot to load: %w", core.ErrInvariant)
)

// Encoded sizes. The payload is what the checksum covers; the trailer holds
// the checksum bookkeeping so a load restores it too.
const (
	payloadSize  = 4 + 3*4 + 3*4 + 4*4 + 1 + 1
	trailerSize  = 2 * (4 + 2)
	SnapshotSize = payloadSize + trailerSize
)

var le = binary.LittleEndian

// Snapshot is a serialized copy of State at a frame.
type Snapshot struct {
	Frame    int32
	Data     []byte
	Checksum uint16
}

func appendPaddle(b []byte, p Paddle) []byte {
	b = le.AppendUint32(b, uint32(p.Score))
	b = le.AppendUint32(b, uint32(p.Pos))
	return le.AppendUint32(b, uint32(p.Vel))
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

// appendPayload encodes everything that defines gameplay.
func (s *State) appendPayload(b []byte) []byte {
	b = le.AppendUint32(b, uint32(s.Frame))
	b = appendPaddle(b, s.Left)
	b = appendPaddle(b, s.Right)
	b = le.AppendUint32(b, uint32(s.Ball.X))
	b = le.AppendUint32(b, uint32(s.Ball.Y))
	b = le.AppendUint32(b, uint32(s.Ball.VX))
	b = le.AppendUint32(b, uint32(s.Ball.VY))
	b = appendBool(b, s.Ball.ChangedDirection)
	return append(b, s.CueIndex)
}

// MarshalBinary encodes the full state in a fixed little-endian layout.
func (s *State) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, SnapshotSize)
	b = s.appendPayload(b)
	b = le.AppendUint32(b, uint32(s.LastChecksum.Frame))
	b = le.AppendUint16(b, s.LastChecksum.Checksum)
	b = le.AppendUint32(b, uint32(s.PeriodicChecksum.Frame))
	b = le.AppendUint16(b, s.PeriodicChecksum.Checksum)
	return b, nil
}

// decoder reads fields in encoding order.
type decoder struct {
	data []byte
	off  int
}

func (d *decoder) i32() int32 {
	v := int32(le.Uint32(d.data[d.off:])) //nolint:gosec // round-trips the encoded int32
	d.off += 4
	return v
}

func (d *decoder) u16() uint16 {
	v := le.Uint16(d.data[d.off:])
	d.off += 2
	return v
}

func (d *decoder) u8() uint8 {
	v := d.data[d.off]
	d.off++
	return v
}

func (d *decoder) paddle() Paddle {
	return Paddle{Score: d.i32(), Pos: d.i32(), Vel: d.i32()}
}

// UnmarshalBinary replaces s with the decoded state.
func (s *State) UnmarshalBinary(data []byte) error {
	if len(data) != SnapshotSize {
		return fmt.Errorf("pong: snapshot is %d bytes, expected %d", len(data), SnapshotSize)
	}

	d := &decoder{data: data}
	var next State
	next.Frame = d.i32()
	next.Left = d.paddle()
	next.Right = d.paddle()
	next.Ball = Ball{X: d.i32(), Y: d.i32(), VX: d.i32(), VY: d.i32()}
	next.Ball.ChangedDirection = d.u8() != 0
	next.CueIndex = d.u8()
	next.LastChecksum = FrameChecksum{Frame: d.i32(), Checksum: d.u16()}
	next.PeriodicChecksum = FrameChecksum{Frame: d.i32(), Checksum: d.u16()}

	*s = next
	return nil
}

// Checksum returns the Fletcher-16 digest of the gameplay payload.
func (s *State) Checksum() uint16 {
	return core.Fletcher16(s.appendPayload(make([]byte, 0, payloadSize)))
}

// Save snapshots the state for the session. The session may only save the
// frame the simulation is actually at.
func (s *State) Save(frame int32) (Snapshot, error) {
	if frame != s.Frame {
		return Snapshot{}, fmt.Errorf("%w (asked %d, at %d)", ErrFrameMismatch, frame, s.Frame)
	}

	sum := s.Checksum()
	s.LastChecksum = FrameChecksum{Frame: frame, Checksum: sum}
	if frame%ChecksumInterval == 0 {
		s.PeriodicChecksum = FrameChecksum{Frame: frame, Checksum: sum}
	}

	data, err := s.MarshalBinary()
	if err != nil {
		return Snapshot{}, fmt.Errorf("pong: cannot encode frame %d: %w", frame, err)
	}
	return Snapshot{Frame: frame, Data: data, Checksum: sum}, nil
}

// Load overwrites the whole state with a snapshot. This is the rollback.
func (s *State) Load(snap *Snapshot) error {
	if snap == nil || len(snap.Data) == 0 {
		return ErrNoSnapshot
	}
	if err := s.UnmarshalBinary(snap.Data); err != nil {
		return errors.Join(ErrNoSnapshot, err)
	}
	return nil
}
