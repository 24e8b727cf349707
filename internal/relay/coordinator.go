// Package relay implements the room relay that pairs two peers and forwards
// their traffic verbatim. The relay never simulates; it only seats peers,
// announces arrivals and departures, and copies bytes.
package relay

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/transport"
)

// Join errors.
var (
	ErrRoomFull     = errors.New("relay: room is full")
	ErrTooManyRooms = errors.New("relay: too many rooms")
	ErrBadRoomCode  = errors.New("relay: bad room code")
	ErrStopped      = errors.New("relay: coordinator stopped")
)

// SeatsPerRoom is the number of peers a room holds.
const SeatsPerRoom = 2

// RoomCodeLen is the length of generated room codes.
const RoomCodeLen = 4

// Room is a pair of seats. A room created by matchmaking is public and
// can be filled by any matchmaking peer; a named room only by its code.
// Once both seats have been filled the room is started and a seat vacated
// by Leave is never handed out again.
type Room struct {
	Code      string
	Public    bool
	CreatedAt time.Time
	seats     [SeatsPerRoom]*Peer
	started   bool
}

// Started reports whether both seats have been filled at some point.
func (r *Room) Started() bool {
	return r.started
}

// Occupants returns the number of seated peers.
func (r *Room) Occupants() int {
	n := 0
	for _, p := range r.seats {
		if p != nil {
			n++
		}
	}
	return n
}

func (r *Room) freeSeat() (core.PlayerHandle, bool) {
	for i, p := range r.seats {
		if p == nil {
			return core.PlayerHandle(i), true
		}
	}
	return 0, false
}

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	RoomTimeout   time.Duration // How long a half-empty room waits for a second peer
	CleanupPeriod time.Duration // How often to clean up expired rooms
	MaxRooms      int           // Zero means unlimited
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		RoomTimeout:   2 * time.Minute,
		CleanupPeriod: 30 * time.Second,
		MaxRooms:      1024,
	}
}

// Coordinator manages rooms and routes messages between the peers in them.
type Coordinator struct {
	config  CoordinatorConfig
	logger  *log.Logger
	metrics *Metrics // Optional, can be nil
	now     func() time.Time

	mu    sync.RWMutex
	rooms map[string]*Room // code -> room

	done     chan struct{}
	stopOnce sync.Once
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg CoordinatorConfig, logger *log.Logger, metrics *Metrics) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
		rooms:   make(map[string]*Room),
		done:    make(chan struct{}),
	}
}

// Start begins the coordinator's background cleanup.
func (c *Coordinator) Start() {
	if c.config.CleanupPeriod > 0 {
		go c.cleanupLoop()
	}
}

// Stop shuts down the coordinator and closes every seated peer.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		defer c.mu.Unlock()
		for code, room := range c.rooms {
			for _, p := range room.seats {
				if p != nil {
					p.Close()
				}
			}
			delete(c.rooms, code)
		}
		c.observe()
	})
}

// NormalizeCode upper-cases a room code and maps the empty code to matchmaking.
// Codes are 1 to 16 letters or digits.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || code == strings.ToUpper(transport.RandomRoom) {
		return "", nil
	}
	if len(code) > 16 {
		return "", fmt.Errorf("%w: %q", ErrBadRoomCode, code)
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: %q", ErrBadRoomCode, code)
		}
	}
	return code, nil
}

// Join seats a peer. An empty code (or "random") matchmakes into the oldest
// public room waiting for a second peer, or opens a new public room.
// A named room is created on first use.
//
// The peer receives a Welcome with its handle; a peer already in the room
// receives PeerJoined.
func (c *Coordinator) Join(code string, p *Peer) (*Room, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		c.rejected("bad_code")
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return nil, ErrStopped
	default:
	}

	var room *Room
	if code == "" {
		room = c.waitingPublicRoom()
	} else {
		room = c.rooms[code]
	}

	if room == nil {
		if c.config.MaxRooms > 0 && len(c.rooms) >= c.config.MaxRooms {
			c.rejected("capacity")
			return nil, ErrTooManyRooms
		}
		public := code == ""
		if public {
			code = c.generateUniqueCode()
		}
		room = &Room{Code: code, Public: public, CreatedAt: c.now()}
		c.rooms[code] = room
	}

	handle, ok := room.freeSeat()
	if !ok || room.started {
		c.rejected("full")
		return nil, fmt.Errorf("%w: %s", ErrRoomFull, room.Code)
	}

	others := room.Occupants()
	room.seats[handle] = p
	p.room = room
	p.handle = handle
	if room.Occupants() == SeatsPerRoom {
		room.started = true
	}

	p.Send(transport.Welcome(handle, others))
	for _, other := range room.seats {
		if other != nil && other != p {
			other.Send(transport.Message{Type: transport.MsgPeerJoined})
		}
	}

	c.logger.Info("peer joined", "peer", p.ID(), "room", room.Code, "handle", handle, "public", room.Public)
	c.observe()
	return room, nil
}

// waitingPublicRoom returns the oldest public room that has not started.
// Must be called with lock held.
func (c *Coordinator) waitingPublicRoom() *Room {
	var oldest *Room
	for _, room := range c.rooms {
		if !room.Public || room.started {
			continue
		}
		if oldest == nil || room.CreatedAt.Before(oldest.CreatedAt) {
			oldest = room
		}
	}
	return oldest
}

// Relay forwards a peer-to-peer message to the other occupant of the sender's
// room. Relay bookkeeping types from a peer are dropped.
func (c *Coordinator) Relay(from *Peer, m transport.Message) {
	switch m.Type {
	case transport.MsgSync, transport.MsgInput, transport.MsgChecksum:
	default:
		c.logger.Debug("dropping non-relayable message", "peer", from.ID(), "type", m.Type)
		return
	}

	c.mu.RLock()
	room := from.room
	var to *Peer
	if room != nil {
		for _, p := range room.seats {
			if p != nil && p != from {
				to = p
			}
		}
	}
	c.mu.RUnlock()

	if to == nil {
		return
	}
	to.Send(m)
	if c.metrics != nil {
		c.metrics.Relayed.WithLabelValues(m.Type.String()).Inc()
	}
}

// Leave removes a peer from its room and tells the remaining peer.
// Empty rooms are deleted.
func (c *Coordinator) Leave(p *Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room := p.room
	if room == nil {
		return
	}
	if room.seats[p.handle] == p {
		room.seats[p.handle] = nil
	}
	p.room = nil

	for _, other := range room.seats {
		if other != nil {
			other.Send(transport.Message{Type: transport.MsgPeerLeft})
		}
	}
	if room.Occupants() == 0 {
		delete(c.rooms, room.Code)
	}

	c.logger.Info("peer left", "peer", p.ID(), "room", room.Code)
	c.observe()
}

func (c *Coordinator) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpiredRooms()
		case <-c.done:
			return
		}
	}
}

// cleanupExpiredRooms closes rooms older than RoomTimeout that have an empty
// seat: rooms still waiting for a second peer and started rooms one side left.
func (c *Coordinator) cleanupExpiredRooms() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expired := 0
	for code, room := range c.rooms {
		if room.Occupants() < SeatsPerRoom && now.Sub(room.CreatedAt) > c.config.RoomTimeout {
			for i, p := range room.seats {
				if p != nil {
					p.room = nil
					p.Close()
					room.seats[i] = nil
				}
			}
			delete(c.rooms, code)
			expired++
			c.logger.Info("room expired", "room", code)
		}
	}
	if expired > 0 {
		c.observe()
	}
	return expired
}

// observe publishes room and peer gauges. Must be called with lock held.
func (c *Coordinator) observe() {
	if c.metrics == nil {
		return
	}
	peers := 0
	for _, room := range c.rooms {
		peers += room.Occupants()
	}
	c.metrics.Rooms.Set(float64(len(c.rooms)))
	c.metrics.Peers.Set(float64(peers))
}

func (c *Coordinator) rejected(reason string) {
	if c.metrics != nil {
		c.metrics.Rejected.WithLabelValues(reason).Inc()
	}
}

func (c *Coordinator) generateUniqueCode() string {
	for {
		code := generateRoomCode()
		if _, exists := c.rooms[code]; !exists {
			return code
		}
	}
}

// generateRoomCode creates a 4-character uppercase alphanumeric code.
func generateRoomCode() string {
	b := make([]byte, 3) // 3 bytes = 24 bits, base32 encodes to 5 chars, we take 4
	_, err := rand.Read(b)
	if err != nil {
		// Fallback to timestamp-based
		return fmt.Sprintf("%04X", time.Now().UnixNano()&0xFFFF)
	}
	// Use base32 encoding (A-Z, 2-7), take first 4 chars
	return base32.StdEncoding.EncodeToString(b)[:RoomCodeLen]
}

// GetRoom returns a room by code (for testing/debug).
func (c *Coordinator) GetRoom(code string) (*Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rooms[strings.ToUpper(code)]
	return r, ok
}

// RoomCount returns the number of open rooms.
func (c *Coordinator) RoomCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rooms)
}

// PeerCount returns the number of seated peers.
func (c *Coordinator) PeerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, room := range c.rooms {
		n += room.Occupants()
	}
	return n
}
