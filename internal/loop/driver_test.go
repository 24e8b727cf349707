package loop

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/games/pong"
	"github.com/vovakirdan/netpong/internal/multiplayer"
	"github.com/vovakirdan/netpong/internal/transport"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type recordingPlayer struct {
	cues []pong.Cue
}

func (p *recordingPlayer) Play(cue pong.Cue) { p.cues = append(p.cues, cue) }
func (p *recordingPlayer) Close()            {}

type resultLog struct {
	results []multiplayer.MatchResult
}

func (r *resultLog) SaveMatchResult(res multiplayer.MatchResult) error {
	r.results = append(r.results, res)
	return nil
}

// scriptedSession is a running session whose requests come from a function.
type scriptedSession struct {
	state  multiplayer.SessionState
	ahead  int
	next   func() ([]multiplayer.Request, error)
	events []multiplayer.Event
}

func (s *scriptedSession) Poll() {}
func (s *scriptedSession) AddLocalInput(multiplayer.PlayerHandle, core.Input) error {
	return nil
}
func (s *scriptedSession) AdvanceFrame() ([]multiplayer.Request, error) { return s.next() }
func (s *scriptedSession) State() multiplayer.SessionState              { return s.state }
func (s *scriptedSession) FramesAhead() int                             { return s.ahead }
func (s *scriptedSession) LocalHandles() []multiplayer.PlayerHandle {
	return []multiplayer.PlayerHandle{0}
}
func (s *scriptedSession) NumPlayers() int { return 1 }
func (s *scriptedSession) Events() []multiplayer.Event {
	out := s.events
	s.events = nil
	return out
}

func advancing() *scriptedSession {
	return &scriptedSession{
		state: multiplayer.StateRunning,
		next: func() ([]multiplayer.Request, error) {
			return []multiplayer.Request{advance(0)}, nil
		},
	}
}

func newDriver(t *testing.T, opts Options) *Driver {
	t.Helper()
	opts.Logger = log.New(io.Discard)
	opts.Clock = func() time.Time { return t0 }
	return NewDriver(DefaultConfig(), opts)
}

func withSession(s multiplayer.Session) SessionBuilder {
	return func(multiplayer.MatchMode, Connection) (multiplayer.Session, error) {
		return s, nil
	}
}

func join(t *testing.T, d *Driver) {
	t.Helper()
	if err := d.Join(context.Background(), ""); err != nil {
		t.Fatalf("Join: %v", err)
	}
}

func TestDriverPacing(t *testing.T) {
	tests := []struct {
		name    string
		ticks   []time.Duration
		ahead   int
		wantFrm int32
	}{
		{"first tick only sets the clock", []time.Duration{0}, 0, 0},
		{"100ms at 60fps", []time.Duration{0, 100 * time.Millisecond}, 0, 6},
		{"remainder carries over", []time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond}, 0, 1},
		{"stall is capped at 250ms", []time.Duration{0, 10 * time.Second}, 0, 15},
		{"ahead of opponent slows down", []time.Duration{0, 100 * time.Millisecond}, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := advancing()
			session.ahead = tt.ahead
			d := newDriver(t, Options{Build: withSession(session)})
			join(t, d)

			for _, at := range tt.ticks {
				d.Tick(t0.Add(at))
			}
			if d.State().Frame != tt.wantFrm {
				t.Errorf("frame = %d, want %d", d.State().Frame, tt.wantFrm)
			}
		})
	}
}

func TestDriverSkipsFramesWhileSynchronizing(t *testing.T) {
	session := advancing()
	session.state = multiplayer.StateSynchronizing
	d := newDriver(t, Options{Build: withSession(session)})
	join(t, d)

	d.Tick(t0)
	d.Tick(t0.Add(200 * time.Millisecond))
	if d.State().Frame != 0 {
		t.Errorf("frame = %d while synchronizing, want 0", d.State().Frame)
	}

	// Time spent synchronizing is not banked.
	session.state = multiplayer.StateRunning
	d.Tick(t0.Add(200*time.Millisecond + 20*time.Millisecond))
	if d.State().Frame != 1 {
		t.Errorf("frame = %d after sync, want 1", d.State().Frame)
	}
}

func TestDriverPredictionThresholdSkipsFrame(t *testing.T) {
	calls := 0
	session := advancing()
	session.next = func() ([]multiplayer.Request, error) {
		calls++
		if calls%2 == 0 {
			return nil, multiplayer.ErrPredictionThreshold
		}
		return []multiplayer.Request{advance(0)}, nil
	}
	d := newDriver(t, Options{Build: withSession(session)})
	join(t, d)

	d.Tick(t0)
	d.Tick(t0.Add(100 * time.Millisecond))
	if d.Mode() != ModePlaying {
		t.Fatalf("mode = %s, want playing", d.Mode())
	}
	if calls != 6 || d.State().Frame != 3 {
		t.Errorf("calls=%d frame=%d, want 6 and 3", calls, d.State().Frame)
	}
}

func TestDriverLocalKeysMovePaddle(t *testing.T) {
	d := newDriver(t, Options{Mode: multiplayer.MatchModeLocal})
	join(t, d)
	if d.Role() != core.RoleBoth {
		t.Fatalf("role = %d, want both", d.Role())
	}

	d.Tick(t0)
	d.Keys().Press(core.KeyS)
	d.Keys().Press(core.KeyUp)
	d.Tick(t0.Add(250 * time.Millisecond))

	// The press lasts KeyHoldTicks frames.
	hold := int32(DefaultConfig().KeyHoldTicks)
	if got, want := d.State().Left.Pos, pong.PaddleBottomLimit+hold*pong.PaddleStep; got != want {
		t.Errorf("left pos = %d, want %d", got, want)
	}
	// Right paddle was asked to go up from the bottom limit and is refused.
	if got := d.State().Right.Pos; got != pong.PaddleBottomLimit {
		t.Errorf("right pos = %d, want %d", got, pong.PaddleBottomLimit)
	}
}

func TestDriverInvariantErrorEndsMatch(t *testing.T) {
	session := advancing()
	session.next = func() ([]multiplayer.Request, error) {
		return []multiplayer.Request{multiplayer.LoadRequest{Frame: 0, Cell: &multiplayer.Cell{}}}, nil
	}
	results := &resultLog{}
	d := newDriver(t, Options{Build: withSession(session), Results: results})
	join(t, d)
	d.State().Left.Score = 3

	d.Tick(t0)
	d.Tick(t0.Add(20 * time.Millisecond))

	if d.Mode() != ModeLobby {
		t.Fatalf("mode = %s, want lobby", d.Mode())
	}
	if d.State().Left.Score != 0 || d.State().Frame != 0 {
		t.Error("state was not replaced with a fresh one")
	}
	if len(results.results) != 1 || results.results[0].Reason != multiplayer.MatchEndReasonFailed {
		t.Errorf("results = %+v, want one failed match", results.results)
	}
	if d.Status() == "" {
		t.Error("status should describe the failure")
	}
}

func TestDriverSessionErrorEndsMatch(t *testing.T) {
	session := advancing()
	session.next = func() ([]multiplayer.Request, error) {
		return nil, multiplayer.ErrMismatchedChecksum
	}
	d := newDriver(t, Options{Build: withSession(session)})
	join(t, d)

	d.Tick(t0)
	d.Tick(t0.Add(20 * time.Millisecond))
	res, ok := d.LastResult()
	if d.Mode() != ModeLobby || !ok || res.Reason != multiplayer.MatchEndReasonFailed {
		t.Errorf("mode=%s result=%+v, want lobby after failure", d.Mode(), res)
	}
}

func TestDriverMatchCompletes(t *testing.T) {
	results := &resultLog{}
	d := newDriver(t, Options{Mode: multiplayer.MatchModeLocal, Results: results})
	join(t, d)

	s := d.State()
	s.Left.Score = pong.ScoreMax - 1
	s.Ball.X = pong.EdgeRight
	s.Ball.Y = 300

	d.Tick(t0)
	d.Tick(t0.Add(20 * time.Millisecond))

	if d.Mode() != ModeLobby {
		t.Fatalf("mode = %s, want lobby after the winning point", d.Mode())
	}
	if len(results.results) != 1 {
		t.Fatalf("saved %d results, want 1", len(results.results))
	}
	res := results.results[0]
	if res.Reason != multiplayer.MatchEndReasonCompleted || res.Winner != "left" || res.LeftScore != int(pong.ScoreMax) {
		t.Errorf("result = %+v", res)
	}
	if res.Seat != "both" || res.Mode != multiplayer.MatchModeLocal || res.Frames != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestDriverAbortWhilePlaying(t *testing.T) {
	results := &resultLog{}
	d := newDriver(t, Options{Mode: multiplayer.MatchModeLocal, Results: results})
	join(t, d)
	d.Abort()

	if d.Mode() != ModeLobby || len(results.results) != 1 || results.results[0].Reason != multiplayer.MatchEndReasonAborted {
		t.Errorf("mode=%s results=%+v", d.Mode(), results.results)
	}
}

// runCues plays frames of a fresh match in mode and returns the cues heard.
func runCues(t *testing.T, mode multiplayer.MatchMode, ticks int) ([]pong.Cue, *Driver) {
	t.Helper()
	player := &recordingPlayer{}
	d := newDriver(t, Options{Mode: mode, Audio: player})
	join(t, d)

	d.Tick(t0)
	for i := 1; i <= ticks; i++ {
		d.Tick(t0.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	return player.cues, d
}

func TestDriverResimulationDoesNotReplayCues(t *testing.T) {
	local, ld := runCues(t, multiplayer.MatchModeLocal, 50)
	replayed, sd := runCues(t, multiplayer.MatchModeSyncTest, 50)

	if sd.Mode() != ModePlaying {
		t.Fatalf("synctest match ended: %s", sd.Status())
	}
	if ld.State().Frame != sd.State().Frame {
		t.Fatalf("frames differ: local %d synctest %d", ld.State().Frame, sd.State().Frame)
	}
	if len(local) == 0 {
		t.Fatal("no cues in 300 frames")
	}
	if len(local) != len(replayed) {
		t.Fatalf("local heard %d cues, synctest %d", len(local), len(replayed))
	}
	for i := range local {
		if local[i] != replayed[i] {
			t.Errorf("cue %d: local %d synctest %d", i, local[i], replayed[i])
		}
	}
}

func TestDriverSyncTestWithRandomInput(t *testing.T) {
	results := &resultLog{}
	d := newDriver(t, Options{Mode: multiplayer.MatchModeSyncTest, Results: results})
	join(t, d)

	rng := rand.New(rand.NewSource(7))
	keys := []core.Key{core.KeyW, core.KeyS, core.KeyUp, core.KeyDown}
	d.Tick(t0)
	for i := 1; i <= 200 && d.Mode() == ModePlaying; i++ {
		d.Keys().Press(keys[rng.Intn(len(keys))])
		d.Tick(t0.Add(time.Duration(i) * 50 * time.Millisecond))
	}

	for _, res := range results.results {
		if res.Reason != multiplayer.MatchEndReasonCompleted {
			t.Errorf("match ended with %s: %s", res.Reason, d.Status())
		}
	}
}

// fakeConn is an in-memory relay connection.
type fakeConn struct {
	mu       sync.Mutex
	inbox    []transport.Message
	sent     []transport.Message
	welcomed bool
	handle   core.PlayerHandle
	peers    int
	closed   bool
}

func (c *fakeConn) Send(m transport.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m)
	return nil
}

func (c *fakeConn) Poll() []transport.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.inbox
	c.inbox = nil
	return out
}

func (c *fakeConn) deliver(m transport.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inbox = append(c.inbox, m)
}

func (c *fakeConn) Welcomed() bool            { return c.welcomed }
func (c *fakeConn) Handle() core.PlayerHandle { return c.handle }
func (c *fakeConn) Peers() int                { return c.peers }
func (c *fakeConn) Err() error                { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) sentTypes() []transport.MessageType {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []transport.MessageType
	for _, m := range c.sent {
		out = append(out, m.Type)
	}
	return out
}

// tickUntil ticks d until cond holds or a second passes.
func tickUntil(t *testing.T, d *Driver, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached; mode=%s status=%q", d.Mode(), d.Status())
		}
		d.Tick(t0)
		time.Sleep(time.Millisecond)
	}
}

func TestDriverOnlineFlow(t *testing.T) {
	conn := &fakeConn{}
	var dialedRoom string
	d := newDriver(t, Options{
		Mode: multiplayer.MatchModeOnline,
		Connect: func(_ context.Context, room string) (Connection, error) {
			dialedRoom = room
			return conn, nil
		},
	})

	if err := d.Join(context.Background(), "AB12"); err != nil {
		t.Fatal(err)
	}
	if d.Mode() != ModeConnecting {
		t.Fatalf("mode = %s, want connecting", d.Mode())
	}
	tickUntil(t, d, func() bool { return d.Status() == "waiting for opponent" })
	if dialedRoom != "AB12" {
		t.Errorf("dialed %q, want AB12", dialedRoom)
	}

	// Alone in the room: keep waiting. The opponent's handshake arrives early.
	conn.welcomed = true
	conn.handle = core.PlayerRight
	conn.deliver(transport.Sync(core.PlayerLeft))
	d.Tick(t0)
	if d.Mode() != ModeConnecting {
		t.Fatalf("mode = %s with no opponent, want connecting", d.Mode())
	}

	conn.peers = 1
	d.Tick(t0)
	if d.Mode() != ModePlaying || d.Role() != core.RoleRight {
		t.Fatalf("mode=%s role=%d, want playing as right", d.Mode(), d.Role())
	}

	// The held handshake reaches the session on its first poll.
	d.Tick(t0.Add(time.Millisecond))
	if d.Session().State() != multiplayer.StateRunning {
		t.Errorf("session state = %s, want running", d.Session().State())
	}
	found := false
	for _, typ := range conn.sentTypes() {
		if typ == transport.MsgSync {
			found = true
		}
	}
	if !found {
		t.Errorf("no sync reply sent; sent %v", conn.sentTypes())
	}

	conn.deliver(transport.Message{Type: transport.MsgPeerLeft})
	d.Tick(t0.Add(2 * time.Millisecond))
	if d.Status() != "opponent disconnected" {
		t.Errorf("status = %q after peer left", d.Status())
	}
	d.Abort()
	res, _ := d.LastResult()
	if res.Reason != multiplayer.MatchEndReasonDisconnect || !conn.closed {
		t.Errorf("reason=%s closed=%v, want disconnect and closed", res.Reason, conn.closed)
	}
}

func TestDriverSilentOpponentTimesOut(t *testing.T) {
	conn := &fakeConn{welcomed: true, handle: core.PlayerLeft, peers: 1}
	cfg := DefaultConfig()
	cfg.StallTimeout = 3 * cfg.FrameDuration()
	d := NewDriver(cfg, Options{
		Mode:   multiplayer.MatchModeOnline,
		Logger: log.New(io.Discard),
		Clock:  func() time.Time { return t0 },
		Connect: func(context.Context, string) (Connection, error) {
			return conn, nil
		},
	})

	if err := d.Join(context.Background(), "MUTE"); err != nil {
		t.Fatal(err)
	}
	tickUntil(t, d, func() bool { return d.Mode() == ModePlaying })
	if d.Status() != "synchronizing" {
		t.Fatalf("status = %q, want synchronizing", d.Status())
	}

	// The opponent was seated but never answers the handshake.
	for i := 0; i < 3; i++ {
		d.Tick(t0)
	}
	if d.Status() != "opponent disconnected" {
		t.Errorf("status = %q after %s of silence", d.Status(), cfg.StallTimeout)
	}
	if d.Session().State() != multiplayer.StateRunning {
		t.Errorf("session state = %s, want running alone", d.Session().State())
	}

	d.Abort()
	res, _ := d.LastResult()
	if res.Reason != multiplayer.MatchEndReasonDisconnect {
		t.Errorf("reason = %s, want disconnect", res.Reason)
	}
}

func TestConfigStallPolls(t *testing.T) {
	tests := []struct {
		timeout time.Duration
		want    int
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Millisecond, 1},
		{5 * time.Second, 300},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.StallTimeout = tt.timeout
		if got := cfg.StallPolls(); got != tt.want {
			t.Errorf("StallPolls(%s) = %d, want %d", tt.timeout, got, tt.want)
		}
	}
}

func TestDriverAbortWhileConnecting(t *testing.T) {
	conn := &fakeConn{welcomed: true}
	d := newDriver(t, Options{
		Mode: multiplayer.MatchModeOnline,
		Connect: func(context.Context, string) (Connection, error) {
			return conn, nil
		},
	})
	if err := d.Join(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	tickUntil(t, d, func() bool { return d.Status() == "waiting for opponent" })

	d.Abort()
	if d.Mode() != ModeLobby || !conn.closed {
		t.Errorf("mode=%s closed=%v, want lobby and closed", d.Mode(), conn.closed)
	}
	if _, ok := d.LastResult(); ok {
		t.Error("aborting a join must not record a match")
	}
}

func TestDriverDialFailure(t *testing.T) {
	d := newDriver(t, Options{
		Mode: multiplayer.MatchModeOnline,
		Connect: func(context.Context, string) (Connection, error) {
			return nil, errors.New("connection refused")
		},
	})
	if err := d.Join(context.Background(), "ROOM"); err != nil {
		t.Fatal(err)
	}
	tickUntil(t, d, func() bool { return d.Mode() == ModeLobby })
	if d.Status() != "relay unreachable" {
		t.Errorf("status = %q", d.Status())
	}
}

func TestDriverJoinTwice(t *testing.T) {
	d := newDriver(t, Options{Mode: multiplayer.MatchModeLocal})
	join(t, d)
	if err := d.Join(context.Background(), ""); err == nil {
		t.Error("second Join while playing should fail")
	}
}

func TestDriverOnlineWithoutConnector(t *testing.T) {
	d := newDriver(t, Options{Mode: multiplayer.MatchModeOnline})
	if err := d.Join(context.Background(), "X"); !errors.Is(err, ErrNoConnection) {
		t.Errorf("err = %v, want ErrNoConnection", err)
	}
}
