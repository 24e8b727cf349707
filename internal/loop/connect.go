package loop

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/multiplayer"
	"github.com/vovakirdan/netpong/internal/transport"
)

// ErrNoConnection is returned when an online session is built without a relay connection.
var ErrNoConnection = errors.New("loop: online match needs a relay connection")

// Connection is a joined relay room. transport.Socket implements it.
type Connection interface {
	multiplayer.Peer
	Welcomed() bool
	Handle() core.PlayerHandle
	Peers() int
	Err() error
	Close() error
}

// Connector opens a connection to a room.
type Connector func(ctx context.Context, room string) (Connection, error)

// DialRelay returns a Connector that dials rooms on a relay.
func DialRelay(relayURL string, logger *log.Logger) Connector {
	return func(ctx context.Context, room string) (Connection, error) {
		s, err := transport.Dial(ctx, relayURL, room, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// SessionBuilder creates the session for a match. conn is nil for offline modes.
type SessionBuilder func(mode multiplayer.MatchMode, conn Connection) (multiplayer.Session, error)

// NewSessionBuilder returns the builder for the shipped sessions.
// Offline modes run one local input source that drives both paddles.
func NewSessionBuilder(cfg Config) SessionBuilder {
	return func(mode multiplayer.MatchMode, conn Connection) (multiplayer.Session, error) {
		switch mode {
		case multiplayer.MatchModeLocal:
			return multiplayer.NewLocalSession(1), nil
		case multiplayer.MatchModeSyncTest:
			return multiplayer.NewSyncTestSession(1, cfg.CheckDistance), nil
		case multiplayer.MatchModeOnline:
			if conn == nil {
				return nil, ErrNoConnection
			}
			return multiplayer.NewLockstepSession(conn, multiplayer.LockstepConfig{
				LocalHandle:   conn.Handle(),
				InputDelay:    cfg.InputDelay,
				ChecksumEvery: int32(cfg.ChecksumEvery), //nolint:gosec // small config value
				StallPolls:    cfg.StallPolls(),
			})
		default:
			return nil, errors.New("loop: unknown match mode " + mode.String())
		}
	}
}

// heldConnection replays messages that arrived while the driver was still
// waiting for an opponent, so the session sees the full stream.
type heldConnection struct {
	Connection
	held []transport.Message
}

func (h *heldConnection) Poll() []transport.Message {
	if len(h.held) == 0 {
		return h.Connection.Poll()
	}
	out := append(h.held, h.Connection.Poll()...)
	h.held = nil
	return out
}
