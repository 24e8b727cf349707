package relay

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/netpong/internal/transport"
)

// readPump forwards a peer's messages until its connection fails,
// then removes the peer from its room.
func (s *Server) readPump(conn *websocket.Conn, peer *Peer) {
	defer func() {
		s.coord.Leave(peer)
		peer.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("peer read failed", "peer", peer.ID(), "err", err)
			}
			return
		}

		var m transport.Message
		if err := m.UnmarshalBinary(data); err != nil {
			s.logger.Warn("dropping malformed message", "peer", peer.ID(), "err", err)
			continue
		}
		s.coord.Relay(peer, m)
	}
}

// writePump drains the peer's queue onto its connection and keeps it alive.
func (s *Server) writePump(conn *websocket.Conn, peer *Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case m := <-peer.Outbound():
			data, _ := m.MarshalBinary() //nolint:errcheck // fixed-size encoding cannot fail
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-peer.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
