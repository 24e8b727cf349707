package loop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/netpong/internal/audio"
	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/games/pong"
	"github.com/vovakirdan/netpong/internal/multiplayer"
	"github.com/vovakirdan/netpong/internal/transport"
)

// Config holds pacing and session parameters.
type Config struct {
	FPS           int
	AheadFactor   float64       // Frame duration multiplier while ahead of the opponent
	MaxCatchUp    time.Duration // Cap on accumulated time after a stall
	KeyHoldTicks  int
	InputDelay    int
	CheckDistance int
	ChecksumEvery int
	StallTimeout  time.Duration // Peer silence that ends an online handshake or match; 0 waits forever
}

// DefaultConfig returns the standard pacing: 60 fps, 10% slowdown when ahead.
func DefaultConfig() Config {
	return Config{
		FPS:           60,
		AheadFactor:   1.1,
		MaxCatchUp:    250 * time.Millisecond,
		KeyHoldTicks:  8,
		InputDelay:    2,
		CheckDistance: 2,
		ChecksumEvery: 60,
		StallTimeout:  5 * time.Second,
	}
}

// FrameDuration returns the nominal length of one logical frame.
func (c Config) FrameDuration() time.Duration {
	return time.Second / time.Duration(max(1, c.FPS))
}

// StallPolls converts StallTimeout into session polls, one per tick.
func (c Config) StallPolls() int {
	if c.StallTimeout <= 0 {
		return 0
	}
	return max(1, int(c.StallTimeout/c.FrameDuration()))
}

// Options wires the driver's collaborators. Only Mode is required;
// online play also needs Connect.
type Options struct {
	Mode    multiplayer.MatchMode
	Connect Connector
	Build   SessionBuilder               // Defaults to NewSessionBuilder
	Audio   audio.Player                 // Defaults to audio.Silent
	Results multiplayer.MatchResultSaver // Optional
	Logger  *log.Logger
	Clock   func() time.Time // Defaults to time.Now; used for match durations
}

type dialResult struct {
	conn Connection
	err  error
}

// Driver runs matches. It is not safe for concurrent use: one goroutine
// calls Join, Abort and Tick and reads State for rendering.
type Driver struct {
	cfg     Config
	mode    multiplayer.MatchMode
	connect Connector
	build   SessionBuilder
	audio   audio.Player
	results multiplayer.MatchResultSaver
	logger  *log.Logger
	clock   func() time.Time

	phase  Mode
	room   string
	status string

	// Connecting
	cancel context.CancelFunc
	dialed chan dialResult
	conn   Connection
	held   []transport.Message

	// Playing
	session      multiplayer.Session
	state        *pong.State
	keys         *core.KeyState
	role         core.Role
	acc          time.Duration
	last         time.Time
	soundedFrame int32
	startedAt    time.Time
	peerGone     bool

	lastResult *multiplayer.MatchResult
}

// NewDriver creates a driver in the lobby.
func NewDriver(cfg Config, opts Options) *Driver {
	if opts.Build == nil {
		opts.Build = NewSessionBuilder(cfg)
	}
	if opts.Audio == nil {
		opts.Audio = audio.Silent{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if cfg.AheadFactor < 1 {
		cfg.AheadFactor = 1
	}
	if cfg.MaxCatchUp <= 0 {
		cfg.MaxCatchUp = 250 * time.Millisecond
	}

	return &Driver{
		cfg:     cfg,
		mode:    opts.Mode,
		connect: opts.Connect,
		build:   opts.Build,
		audio:   opts.Audio,
		results: opts.Results,
		logger:  opts.Logger,
		clock:   opts.Clock,
		phase:   ModeLobby,
		state:   pong.New(),
		keys:    core.NewKeyState(cfg.KeyHoldTicks),
	}
}

// Mode returns the current lifecycle phase.
func (d *Driver) Mode() Mode { return d.phase }

// MatchMode returns the kind of match Join starts.
func (d *Driver) MatchMode() multiplayer.MatchMode { return d.mode }

// SetMatchMode changes the kind of match Join starts. Ignored outside the lobby.
func (d *Driver) SetMatchMode(m multiplayer.MatchMode) {
	if d.phase == ModeLobby {
		d.mode = m
	}
}

// State returns the simulation state for rendering. Callers must not modify it.
func (d *Driver) State() *pong.State { return d.state }

// Keys returns the local key state the platform layer presses keys into.
func (d *Driver) Keys() *core.KeyState { return d.keys }

// Room returns the room being joined or played in.
func (d *Driver) Room() string { return d.room }

// Status returns a one-line description of what the driver is waiting for.
func (d *Driver) Status() string { return d.status }

// Role returns which paddles local keys drive in the current match.
func (d *Driver) Role() core.Role { return d.role }

// Session returns the current session, or nil outside a match.
func (d *Driver) Session() multiplayer.Session { return d.session }

// LastResult returns the result of the most recent match.
func (d *Driver) LastResult() (multiplayer.MatchResult, bool) {
	if d.lastResult == nil {
		return multiplayer.MatchResult{}, false
	}
	return *d.lastResult, true
}

// Join leaves the lobby for room. Offline modes start playing at once;
// online play dials the relay in the background and waits in Connecting.
func (d *Driver) Join(ctx context.Context, room string) error {
	if d.phase != ModeLobby {
		return fmt.Errorf("loop: cannot join from %s", d.phase)
	}
	d.room = room
	d.lastResult = nil

	if d.mode != multiplayer.MatchModeOnline {
		return d.startMatch(nil, core.RoleBoth)
	}
	if d.connect == nil {
		return ErrNoConnection
	}

	dialCtx, cancel := context.WithCancel(ctx)
	results := make(chan dialResult, 1)
	go func() {
		conn, err := d.connect(dialCtx, room)
		results <- dialResult{conn: conn, err: err}
	}()

	d.cancel = cancel
	d.dialed = results
	d.phase = ModeConnecting
	d.status = "connecting to relay"
	d.logger.Info("joining room", "room", displayRoom(room))
	return nil
}

// Abort returns to the lobby. While connecting it tears everything down;
// while playing it ends the match as aborted.
func (d *Driver) Abort() {
	switch d.phase {
	case ModeConnecting:
		d.logger.Info("join aborted", "room", displayRoom(d.room))
		d.teardown()
		d.status = ""
	case ModePlaying:
		reason := multiplayer.MatchEndReasonAborted
		if d.peerGone {
			reason = multiplayer.MatchEndReasonDisconnect
		}
		d.endMatch(reason)
	}
}

// Tick advances the driver to wall-clock time now. It never blocks.
func (d *Driver) Tick(now time.Time) {
	var elapsed time.Duration
	if !d.last.IsZero() {
		elapsed = now.Sub(d.last)
	}
	d.last = now

	switch d.phase {
	case ModeConnecting:
		d.pollConnecting()
	case ModePlaying:
		d.play(elapsed)
	}
}

func (d *Driver) pollConnecting() {
	if d.conn == nil {
		select {
		case r := <-d.dialed:
			d.dialed = nil
			if r.err != nil {
				d.logger.Error("relay connection failed", "err", r.err)
				d.teardown()
				d.status = "relay unreachable"
				return
			}
			d.conn = r.conn
			d.status = "waiting for opponent"
		default:
			return
		}
	}

	for _, m := range d.conn.Poll() {
		switch m.Type {
		case transport.MsgWelcome, transport.MsgPeerJoined:
		case transport.MsgPeerLeft:
			if err := d.conn.Err(); err != nil {
				d.logger.Error("relay connection lost", "err", err)
				d.teardown()
				d.status = "relay connection lost"
				return
			}
		default:
			d.held = append(d.held, m)
		}
	}

	if !d.conn.Welcomed() || d.conn.Peers() < 1 {
		return
	}

	conn := &heldConnection{Connection: d.conn, held: d.held}
	d.held = nil
	if err := d.startMatch(conn, core.RoleForHandle(d.conn.Handle())); err != nil {
		d.logger.Error("session setup failed", "err", err)
		d.teardown()
		d.status = "session setup failed"
	}
}

func (d *Driver) startMatch(conn Connection, role core.Role) error {
	session, err := d.build(d.mode, conn)
	if err != nil {
		return err
	}

	d.session = session
	d.state = pong.New()
	d.role = role
	d.keys.Release()
	d.acc = 0
	d.soundedFrame = 0
	d.peerGone = false
	d.startedAt = d.clock()
	d.phase = ModePlaying
	d.status = ""
	if session.State() != multiplayer.StateRunning {
		d.status = "synchronizing"
	}

	d.logger.Info("match started", "mode", d.mode, "room", displayRoom(d.room), "role", roleName(role))
	return nil
}

func (d *Driver) play(elapsed time.Duration) {
	d.session.Poll()
	d.handleEvents()
	if d.phase != ModePlaying {
		return
	}

	d.acc = min(d.acc+elapsed, d.cfg.MaxCatchUp)

	frame := d.cfg.FrameDuration()
	if d.session.FramesAhead() > 0 {
		frame = time.Duration(float64(frame) * d.cfg.AheadFactor)
	}

	for d.acc >= frame {
		d.acc -= frame
		if d.session.State() != multiplayer.StateRunning {
			continue
		}
		if !d.step() {
			return
		}
	}
}

// step simulates one logical frame. It reports false once the match is over.
func (d *Driver) step() bool {
	in := core.EncodeLocalInput(d.keys, d.role)
	handles := d.session.LocalHandles()
	if d.role == core.RoleBoth && len(handles) > 1 {
		handles = handles[:1]
	}
	for _, h := range handles {
		if err := d.session.AddLocalInput(h, in); err != nil {
			d.fail(err)
			return false
		}
	}

	reqs, err := d.session.AdvanceFrame()
	if errors.Is(err, multiplayer.ErrPredictionThreshold) {
		return true
	}
	if err != nil {
		d.fail(err)
		return false
	}
	// Holds age only on frames that consumed input.
	d.keys.Tick()

	fx, err := Execute(d.state, reqs)
	if err != nil {
		d.fail(err)
		return false
	}

	for _, fc := range fx.Cues {
		// A resimulated frame was already sounded the first time through.
		if fc.Frame > d.soundedFrame {
			d.audio.Play(fc.Cue)
			d.soundedFrame = fc.Frame
		}
	}
	for _, side := range fx.Points {
		d.logger.Debug("point", "side", side, "left", d.state.Left.Score, "right", d.state.Right.Score)
	}

	if d.state.Winner() != pong.SideNone {
		d.endMatch(multiplayer.MatchEndReasonCompleted)
		return false
	}
	return true
}

func (d *Driver) handleEvents() {
	for _, evt := range d.session.Events() {
		switch e := evt.(type) {
		case multiplayer.SynchronizedEvent:
			d.logger.Info("synchronized with opponent", "room", displayRoom(d.room))
			d.status = ""
		case multiplayer.PeerDisconnectedEvent:
			d.logger.Warn("opponent disconnected", "handle", e.Handle)
			d.peerGone = true
			d.status = "opponent disconnected"
		case multiplayer.DesyncDetectedEvent:
			d.logger.Error("desync detected", "frame", e.Frame, "local", e.Local, "remote", e.Remote)
		}
	}
}

// fail ends the match after an invariant violation.
func (d *Driver) fail(err error) {
	d.logger.Error("match failed", "frame", d.state.Frame, "err", err)
	d.endMatch(multiplayer.MatchEndReasonFailed)
	d.status = "match failed: " + err.Error()
}

func (d *Driver) endMatch(reason multiplayer.MatchEndReason) {
	result := multiplayer.MatchResult{
		Mode:       d.mode,
		Room:       d.room,
		Seat:       roleName(d.role),
		LeftScore:  int(d.state.Left.Score),
		RightScore: int(d.state.Right.Score),
		Reason:     reason,
		Frames:     int(d.state.Frame),
		Duration:   d.clock().Sub(d.startedAt),
	}
	if w := d.state.Winner(); w != pong.SideNone {
		result.Winner = w.String()
	}
	d.lastResult = &result

	d.logger.Info("match ended",
		"reason", reason,
		"score", fmt.Sprintf("%d-%d", result.LeftScore, result.RightScore),
		"frames", result.Frames,
	)
	if d.results != nil {
		if err := d.results.SaveMatchResult(result); err != nil {
			d.logger.Warn("failed to save match result", "err", err)
		}
	}

	d.teardown()
	d.status = ""
}

// teardown drops the session and connection and returns to the lobby
// with a fresh state.
func (d *Driver) teardown() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.dialed != nil && d.conn == nil {
		// A dial still in flight closes its own connection once it lands.
		go func(results <-chan dialResult) {
			if r := <-results; r.conn != nil {
				_ = r.conn.Close()
			}
		}(d.dialed)
	}
	if d.conn != nil {
		_ = d.conn.Close()
	}

	d.dialed = nil
	d.conn = nil
	d.held = nil
	d.session = nil
	d.state = pong.New()
	d.keys.Release()
	d.acc = 0
	d.phase = ModeLobby
}

func roleName(r core.Role) string {
	switch r {
	case core.RoleLeft:
		return "left"
	case core.RoleRight:
		return "right"
	default:
		return "both"
	}
}

func displayRoom(room string) string {
	if room == "" {
		return transport.RandomRoom
	}
	return room
}
