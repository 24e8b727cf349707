// Package transport carries match traffic between a peer and the relay.
//
// Messages are fixed-size binary frames so that a peer never has to
// allocate or parse text on the hot path of a match.
package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/vovakirdan/netpong/internal/core"
)

// MessageType tags a wire message.
type MessageType uint8

const (
	MsgWelcome    MessageType = iota + 1 // Relay -> peer: assigned handle, peers already present
	MsgPeerJoined                        // Relay -> peer: the other seat was taken
	MsgPeerLeft                          // Relay -> peer: the other peer is gone
	MsgSync                              // Peer -> peer: handshake, repeated until answered
	MsgInput                             // Peer -> peer: input for a frame
	MsgChecksum                          // Peer -> peer: state checksum for a frame
)

// String returns a human-readable name for the message type.
func (t MessageType) String() string {
	switch t {
	case MsgWelcome:
		return "welcome"
	case MsgPeerJoined:
		return "peer-joined"
	case MsgPeerLeft:
		return "peer-left"
	case MsgSync:
		return "sync"
	case MsgInput:
		return "input"
	case MsgChecksum:
		return "checksum"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// MessageSize is the encoded size of every message:
// 1-byte type, 4-byte little-endian frame, 2-byte little-endian payload.
const MessageSize = 1 + 4 + 2

// Message is one wire frame. Payload meaning depends on Type:
// the input bits and the sender's frame advantage for MsgInput,
// the checksum for MsgChecksum,
// the handle for MsgWelcome and MsgSync.
// For MsgWelcome, Frame carries the number of peers already in the room.
type Message struct {
	Type    MessageType
	Frame   int32
	Payload uint16
}

// Welcome builds the relay greeting for a newly seated peer.
func Welcome(handle core.PlayerHandle, peers int) Message {
	return Message{Type: MsgWelcome, Frame: int32(peers), Payload: uint16(handle)} //nolint:gosec // handles are 0 or 1
}

// Sync builds a handshake message from the peer with the given handle.
func Sync(handle core.PlayerHandle) Message {
	return Message{Type: MsgSync, Payload: uint16(handle)} //nolint:gosec // handles are 0 or 1
}

// InputMsg builds an input message for a frame. advantage is how many frames
// the sender's newest input is ahead of the newest input it has received.
func InputMsg(frame int32, in core.Input, advantage int) Message {
	adv := int8(min(max(advantage, -128), 127)) //nolint:gosec // clamped
	return Message{Type: MsgInput, Frame: frame, Payload: uint16(in) | uint16(uint8(adv))<<8}
}

// ChecksumMsg builds a checksum message for a frame.
func ChecksumMsg(frame int32, sum uint16) Message {
	return Message{Type: MsgChecksum, Frame: frame, Payload: sum}
}

// Input returns the input bits carried by a MsgInput.
func (m Message) Input() core.Input {
	return core.Input(m.Payload & 0xFF)
}

// Advantage returns the sender's frame advantage carried by a MsgInput.
func (m Message) Advantage() int {
	return int(int8(uint8(m.Payload >> 8))) //nolint:gosec // sign-extends the encoded int8
}

// Handle returns the handle carried by a MsgWelcome or MsgSync.
func (m Message) Handle() core.PlayerHandle {
	return core.PlayerHandle(m.Payload)
}

// MarshalBinary encodes the message.
func (m Message) MarshalBinary() ([]byte, error) {
	b := make([]byte, MessageSize)
	b[0] = byte(m.Type)
	binary.LittleEndian.PutUint32(b[1:], uint32(m.Frame)) //nolint:gosec // bit-preserving
	binary.LittleEndian.PutUint16(b[5:], m.Payload)
	return b, nil
}

// UnmarshalBinary decodes a message, rejecting unknown types and wrong sizes.
func (m *Message) UnmarshalBinary(b []byte) error {
	if len(b) != MessageSize {
		return fmt.Errorf("transport: message is %d bytes, expected %d", len(b), MessageSize)
	}
	t := MessageType(b[0])
	if t < MsgWelcome || t > MsgChecksum {
		return fmt.Errorf("transport: unknown message type %d", b[0])
	}
	m.Type = t
	m.Frame = int32(binary.LittleEndian.Uint32(b[1:])) //nolint:gosec // bit-preserving
	m.Payload = binary.LittleEndian.Uint16(b[5:])
	return nil
}
