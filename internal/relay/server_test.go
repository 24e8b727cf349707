package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/transport"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := NewServer(DefaultCoordinatorConfig(), log.New(io.Discard))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Stop()
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, url, room string) *transport.Socket {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := transport.Dial(ctx, url, room, log.New(io.Discard))
	if err != nil {
		t.Fatalf("dial %s: %v", room, err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// await polls s until a message matching want arrives.
func await(t *testing.T, s *transport.Socket, want func(transport.Message) bool) transport.Message {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, m := range s.Poll() {
			if want(m) {
				return m
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for message")
	return transport.Message{}
}

func ofType(typ transport.MessageType) func(transport.Message) bool {
	return func(m transport.Message) bool { return m.Type == typ }
}

func TestServerPairsAndRelays(t *testing.T) {
	_, ts := newTestServer(t)

	a := dial(t, ts.URL, "duel")
	await(t, a, ofType(transport.MsgWelcome))
	if a.Handle() != 0 || a.Peers() != 0 {
		t.Errorf("a: handle=%d peers=%d, want 0 and 0", a.Handle(), a.Peers())
	}

	b := dial(t, ts.URL, "DUEL")
	await(t, b, ofType(transport.MsgWelcome))
	if b.Handle() != 1 || b.Peers() != 1 {
		t.Errorf("b: handle=%d peers=%d, want 1 and 1", b.Handle(), b.Peers())
	}
	await(t, a, ofType(transport.MsgPeerJoined))
	if a.Peers() != 1 {
		t.Errorf("a peers = %d after join, want 1", a.Peers())
	}

	sent := transport.InputMsg(3, core.InputLeftDown, 2)
	if err := a.Send(sent); err != nil {
		t.Fatal(err)
	}
	got := await(t, b, ofType(transport.MsgInput))
	if got != sent {
		t.Errorf("b got %+v, want %+v", got, sent)
	}

	_ = a.Close()
	await(t, b, ofType(transport.MsgPeerLeft))
	if b.Peers() != 0 {
		t.Errorf("b peers = %d after leave, want 0", b.Peers())
	}
}

func TestServerMatchmaking(t *testing.T) {
	srv, ts := newTestServer(t)

	a := dial(t, ts.URL, "")
	await(t, a, ofType(transport.MsgWelcome))
	b := dial(t, ts.URL, transport.RandomRoom)
	await(t, b, ofType(transport.MsgWelcome))

	if b.Handle() != 1 {
		t.Errorf("second matchmaker handle = %d, want 1", b.Handle())
	}
	if n := srv.Coordinator().RoomCount(); n != 1 {
		t.Errorf("RoomCount = %d, want 1", n)
	}
}

func TestServerRejectsThirdPeer(t *testing.T) {
	_, ts := newTestServer(t)
	dial(t, ts.URL, "TRIO")
	dial(t, ts.URL, "TRIO")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := transport.Dial(ctx, ts.URL, "TRIO", log.New(io.Discard)); err == nil {
		t.Error("third peer was admitted")
	}
}

func TestServerHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t)
	a := dial(t, ts.URL, "HLTH")
	await(t, a, ofType(transport.MsgWelcome))

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var health struct {
		Status string `json:"status"`
		Rooms  int    `json:"rooms"`
		Peers  int    `json:"peers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || health.Rooms != 1 || health.Peers != 1 {
		t.Errorf("health = %+v, want ok with 1 room and 1 peer", health)
	}

	mresp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer mresp.Body.Close()
	body, _ := io.ReadAll(mresp.Body)
	for _, name := range []string{"netpong_relay_rooms 1", "netpong_relay_peers 1"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics missing %q", name)
		}
	}
}

func TestServerBadRoomCode(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/ws/bad!code")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServerRefusesStartedRoom(t *testing.T) {
	_, ts := newTestServer(t)
	a := dial(t, ts.URL, "GONE")
	await(t, a, ofType(transport.MsgWelcome))
	b := dial(t, ts.URL, "GONE")
	await(t, b, ofType(transport.MsgWelcome))

	_ = b.Close()
	await(t, a, ofType(transport.MsgPeerLeft))

	resp, err := http.Get(ts.URL + "/ws/GONE")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}
