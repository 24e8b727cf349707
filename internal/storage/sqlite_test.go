package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/netpong/internal/multiplayer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveMatch(MatchRecord{
		Mode:       "online",
		Room:       "AB12",
		Seat:       "right",
		LeftScore:  3,
		RightScore: 5,
		Winner:     "right",
		EndReason:  "completed",
		Frames:     4200,
		DurationMs: 70_000,
	})
	if err != nil {
		t.Fatalf("SaveMatch() failed: %v", err)
	}

	rec, err := store.MatchByID(id)
	if err != nil {
		t.Fatalf("MatchByID() failed: %v", err)
	}
	if rec == nil {
		t.Fatal("MatchByID() returned nil")
	}
	if rec.Room != "AB12" || rec.Seat != "right" || rec.Winner != "right" {
		t.Errorf("record = %+v", rec)
	}
	if rec.LeftScore != 3 || rec.RightScore != 5 || rec.Frames != 4200 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Duration() != 70*time.Second {
		t.Errorf("Duration() = %v, want 70s", rec.Duration())
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestStoreMatchByIDMissing(t *testing.T) {
	store := openTestStore(t)

	rec, err := store.MatchByID(42)
	if err != nil {
		t.Fatalf("MatchByID() failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil, got %+v", rec)
	}
}

func TestStoreRecentMatches(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 30; i++ {
		mode := "local"
		if i%3 == 0 {
			mode = "online"
		}
		if _, err := store.SaveMatch(MatchRecord{Mode: mode, EndReason: "aborted", Frames: i}); err != nil {
			t.Fatalf("SaveMatch() failed: %v", err)
		}
	}

	all, err := store.RecentMatches("", 25)
	if err != nil {
		t.Fatalf("RecentMatches() failed: %v", err)
	}
	if len(all) != 25 {
		t.Errorf("Expected 25 matches, got %d", len(all))
	}
	if all[0].Frames != 29 {
		t.Errorf("newest match first: got frames %d", all[0].Frames)
	}

	online, err := store.RecentMatches("online", 0)
	if err != nil {
		t.Fatalf("RecentMatches() failed: %v", err)
	}
	if len(online) != 10 {
		t.Errorf("Expected 10 online matches, got %d", len(online))
	}
	for _, m := range online {
		if m.Mode != "online" {
			t.Errorf("unexpected mode %q", m.Mode)
		}
		if m.Winner != "" {
			t.Errorf("unexpected winner %q", m.Winner)
		}
	}
}

func TestStoreSaveMatchResult(t *testing.T) {
	store := openTestStore(t)

	var saver multiplayer.MatchResultSaver = store
	err := saver.SaveMatchResult(multiplayer.MatchResult{
		Mode:       multiplayer.MatchModeLocal,
		Seat:       "both",
		LeftScore:  5,
		RightScore: 1,
		Winner:     "left",
		Reason:     multiplayer.MatchEndReasonCompleted,
		Frames:     900,
		Duration:   15 * time.Second,
	})
	if err != nil {
		t.Fatalf("SaveMatchResult() failed: %v", err)
	}

	recent, err := store.RecentMatches("local", 1)
	if err != nil || len(recent) != 1 {
		t.Fatalf("RecentMatches() = %v, %v", recent, err)
	}
	if recent[0].EndReason != "completed" || recent[0].DurationMs != 15000 {
		t.Errorf("record = %+v", recent[0])
	}
}

func TestStoreStats(t *testing.T) {
	store := openTestStore(t)

	records := []MatchRecord{
		{Mode: "local", Winner: "left", EndReason: "completed", Frames: 100},
		{Mode: "local", Winner: "left", EndReason: "completed", Frames: 200},
		{Mode: "online", Winner: "right", EndReason: "completed", Frames: 300},
		{Mode: "online", EndReason: "disconnect", Frames: 50},
	}
	for _, r := range records {
		if _, err := store.SaveMatch(r); err != nil {
			t.Fatalf("SaveMatch() failed: %v", err)
		}
	}

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if stats.Matches != 4 || stats.Completed != 3 {
		t.Errorf("matches %d completed %d", stats.Matches, stats.Completed)
	}
	if stats.LeftWins != 2 || stats.RightWins != 1 {
		t.Errorf("wins %d/%d, want 2/1", stats.LeftWins, stats.RightWins)
	}
	if stats.Frames != 650 {
		t.Errorf("Frames = %d, want 650", stats.Frames)
	}

	if err := store.ClearMatches(); err != nil {
		t.Fatalf("ClearMatches() failed: %v", err)
	}
	stats, err = store.GetStats()
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if stats.Matches != 0 || !stats.LastPlayed.IsZero() {
		t.Errorf("stats after clear = %+v", stats)
	}
}

func TestStoreNestedPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}
