package loop

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/vovakirdan/netpong/internal/core"
	"github.com/vovakirdan/netpong/internal/multiplayer"
)

func seededInput(seed int64) InputSource {
	rng := rand.New(rand.NewSource(seed))
	inputs := make(map[int32]core.Input)
	return func(frame int32) core.Input {
		// Memoized so a frame asked for twice gets the same input.
		in, ok := inputs[frame]
		if !ok {
			in = core.Input(rng.Intn(16))
			inputs[frame] = in
		}
		return in
	}
}

func TestRunHeadlessLocalMatchesSyncTest(t *testing.T) {
	const frames = 2000

	var local []FrameReport
	if _, err := RunHeadless(multiplayer.NewLocalSession(1), frames, seededInput(42), func(r FrameReport) {
		local = append(local, r)
	}); err != nil {
		t.Fatalf("local run: %v", err)
	}

	var synced []FrameReport
	if _, err := RunHeadless(multiplayer.NewSyncTestSession(1, 3), frames, seededInput(42), func(r FrameReport) {
		synced = append(synced, r)
	}); err != nil {
		t.Fatalf("synctest run: %v", err)
	}

	if len(local) != len(synced) {
		t.Fatalf("frame counts differ: local %d, synctest %d", len(local), len(synced))
	}
	for i := range local {
		if local[i].Frame != synced[i].Frame || local[i].Checksum != synced[i].Checksum {
			t.Fatalf("frame %d: local %+v, synctest %+v", i, local[i], synced[i])
		}
	}
}

func TestRunHeadlessReportsEveryFrame(t *testing.T) {
	var last int32
	state, err := RunHeadless(multiplayer.NewLocalSession(1), 10, func(int32) core.Input { return 0 }, func(r FrameReport) {
		if r.Frame != last+1 {
			t.Errorf("report for frame %d after %d", r.Frame, last)
		}
		last = r.Frame
	})
	if err != nil {
		t.Fatalf("RunHeadless() failed: %v", err)
	}
	if state.Frame != 10 || last != 10 {
		t.Errorf("state.Frame = %d, last report = %d, want 10", state.Frame, last)
	}
}

type handlelessSession struct{ *multiplayer.LocalSession }

func (handlelessSession) LocalHandles() []multiplayer.PlayerHandle { return nil }

func TestRunHeadlessWithoutHandles(t *testing.T) {
	_, err := RunHeadless(handlelessSession{multiplayer.NewLocalSession(1)}, 5, seededInput(1), nil)
	if err == nil {
		t.Fatal("expected an error for a session without local handles")
	}
	if errors.Is(err, core.ErrInvariant) {
		t.Errorf("err = %v, should not be an invariant violation", err)
	}
}
