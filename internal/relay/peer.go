package relay

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/transport"
)

// Peer is one websocket connection seated in a room.
// The coordinator writes to it through Send; the connection's write pump
// drains Outbound.
type Peer struct {
	id       string
	outbound chan transport.Message
	done     chan struct{}
	doneOnce sync.Once

	// Guarded by the coordinator's lock.
	room   *Room
	handle core.PlayerHandle
}

// NewPeer creates a peer whose outbound queue holds bufferSize messages.
func NewPeer(bufferSize int) *Peer {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &Peer{
		id:       uuid.NewString()[:8],
		outbound: make(chan transport.Message, bufferSize),
		done:     make(chan struct{}),
	}
}

// ID returns the peer identifier used in logs.
func (p *Peer) ID() string {
	return p.id
}

// Send queues a message for the peer without blocking.
// If the queue is full the oldest message is dropped. Inputs are never
// resent, so a peer that far behind stalls on the missing frame, both sides
// go quiet, and each session's stall timeout reports the other as gone.
func (p *Peer) Send(m transport.Message) {
	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.outbound <- m:
	default:
		select {
		case <-p.outbound:
		default:
		}
		select {
		case p.outbound <- m:
		default:
		}
	}
}

// Outbound returns the queue the write pump reads from.
func (p *Peer) Outbound() <-chan transport.Message {
	return p.outbound
}

// Done returns a channel closed when the peer is closed.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// Close marks the peer as done. Safe to call multiple times.
func (p *Peer) Close() {
	p.doneOnce.Do(func() {
		close(p.done)
	})
}
