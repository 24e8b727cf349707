package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/netpong/internal/core"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	queueSize = 256
)

// Socket errors.
var (
	ErrClosed  = errors.New("transport: socket closed")
	ErrBacklog = errors.New("transport: send queue full")
)

// RandomRoom is the room code that asks the relay for matchmaking.
const RandomRoom = "random"

// RoomURL returns the websocket URL of a room on the relay.
// An empty room code means matchmaking.
func RoomURL(relayURL, room string) (string, error) {
	u, err := url.Parse(relayURL)
	if err != nil {
		return "", fmt.Errorf("transport: bad relay url %q: %w", relayURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("transport: unsupported relay scheme %q", u.Scheme)
	}

	room = strings.TrimSpace(room)
	if room == "" {
		room = RandomRoom
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + url.PathEscape(room)
	return u.String(), nil
}

// Socket is a peer's connection to a relay room.
//
// Reads and writes happen on background goroutines. The owner drains received
// messages with Poll, which never blocks; nothing else touches game state.
type Socket struct {
	conn   *websocket.Conn
	logger *log.Logger

	inbox  chan Message
	outbox chan Message
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	readErr error

	// Owned by the Poll caller.
	handle   core.PlayerHandle
	welcomed bool
	peers    int
}

// Dial connects to a room on the relay.
func Dial(ctx context.Context, relayURL, room string, logger *log.Logger) (*Socket, error) {
	target, err := RoomURL(relayURL, room)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", target, err)
	}

	s := &Socket{
		conn:   conn,
		logger: logger,
		inbox:  make(chan Message, queueSize),
		outbox: make(chan Message, queueSize),
		done:   make(chan struct{}),
	}
	go s.readPump()
	go s.writePump()

	logger.Debug("connected to relay", "url", target)
	return s, nil
}

func (s *Socket) readPump() {
	defer close(s.inbox)

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			// Losing the relay loses the peer.
			select {
			case s.inbox <- Message{Type: MsgPeerLeft}:
			case <-s.done:
			}
			return
		}

		var m Message
		if err := m.UnmarshalBinary(data); err != nil {
			s.logger.Warn("dropping malformed message", "err", err)
			continue
		}

		select {
		case s.inbox <- m:
		case <-s.done:
			return
		}
	}
}

func (s *Socket) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case m := <-s.outbox:
			data, _ := m.MarshalBinary() //nolint:errcheck // fixed-size encoding cannot fail
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				s.logger.Warn("relay write failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Poll returns every message received since the last call without blocking.
// Relay bookkeeping messages update Handle and Peers before being returned.
func (s *Socket) Poll() []Message {
	var out []Message
	for {
		select {
		case m, ok := <-s.inbox:
			if !ok {
				return out
			}
			s.track(m)
			out = append(out, m)
		default:
			return out
		}
	}
}

func (s *Socket) track(m Message) {
	switch m.Type {
	case MsgWelcome:
		s.handle = m.Handle()
		s.peers = int(m.Frame)
		s.welcomed = true
	case MsgPeerJoined:
		s.peers++
	case MsgPeerLeft:
		if s.peers > 0 {
			s.peers--
		}
	}
}

// Send queues a message for the relay.
func (s *Socket) Send(m Message) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case s.outbox <- m:
		return nil
	default:
		return ErrBacklog
	}
}

// Welcomed reports whether the relay has seated this peer.
func (s *Socket) Welcomed() bool {
	return s.welcomed
}

// Handle returns the seat the relay assigned.
func (s *Socket) Handle() core.PlayerHandle {
	return s.handle
}

// Peers returns how many other peers share the room.
func (s *Socket) Peers() int {
	return s.peers
}

// Err returns the error that ended the read side, if any.
func (s *Socket) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

// Close tears down the connection. Safe to call multiple times.
func (s *Socket) Close() error {
	s.once.Do(func() {
		close(s.done)
	})
	return nil
}
