// Package storage provides SQLite-based persistence for match history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/netpong/internal/multiplayer"
)

// Store manages the SQLite database connection for match history.
type Store struct {
	db *sql.DB
}

// MatchRecord represents one finished match.
type MatchRecord struct {
	ID         int64
	Mode       string // "local", "synctest", "online"
	Room       string
	Seat       string
	LeftScore  int
	RightScore int
	Winner     string // Empty if nobody reached the winning score
	EndReason  string // "completed", "disconnect", "aborted", "failed"
	Frames     int
	DurationMs int64
	CreatedAt  time.Time
}

// Duration returns the wall-clock length of the match.
func (r MatchRecord) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			room TEXT NOT NULL DEFAULT '',
			seat TEXT NOT NULL DEFAULT '',
			left_score INTEGER NOT NULL DEFAULT 0,
			right_score INTEGER NOT NULL DEFAULT 0,
			winner TEXT,
			end_reason TEXT NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_matches_mode ON matches(mode);
		CREATE INDEX IF NOT EXISTS idx_matches_created ON matches(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveMatch records a finished match.
// Returns the ID of the inserted record.
func (s *Store) SaveMatch(rec MatchRecord) (int64, error) {
	var winner sql.NullString
	if rec.Winner != "" {
		winner = sql.NullString{String: rec.Winner, Valid: true}
	}

	res, err := s.db.Exec(
		`INSERT INTO matches
		 (mode, room, seat, left_score, right_score, winner, end_reason, frames, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Mode,
		rec.Room,
		rec.Seat,
		rec.LeftScore,
		rec.RightScore,
		winner,
		rec.EndReason,
		rec.Frames,
		rec.DurationMs,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save match: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const matchColumns = `id, mode, room, seat, left_score, right_score, winner, end_reason, frames, duration_ms, created_at`

// MatchByID retrieves a match by its ID. Returns nil if there is no such match.
func (s *Store) MatchByID(id int64) (*MatchRecord, error) {
	row := s.db.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	rec, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}
	return rec, nil
}

// RecentMatches retrieves the most recent matches, newest first.
// An empty mode matches every mode.
func (s *Store) RecentMatches(mode string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE ? = '' OR mode = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		mode, mode, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// Stats contains aggregated statistics over recorded matches.
type Stats struct {
	Matches    int
	Completed  int
	LeftWins   int
	RightWins  int
	Frames     int64
	LastPlayed time.Time
}

// GetStats aggregates every recorded match.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	var lastPlayed any

	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(end_reason = 'completed'), 0),
		        COALESCE(SUM(winner = 'left'), 0),
		        COALESCE(SUM(winner = 'right'), 0),
		        COALESCE(SUM(frames), 0),
		        MAX(created_at)
		 FROM matches`,
	).Scan(&stats.Matches, &stats.Completed, &stats.LeftWins, &stats.RightWins, &stats.Frames, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// ClearMatches deletes every recorded match.
func (s *Store) ClearMatches() error {
	if _, err := s.db.Exec("DELETE FROM matches"); err != nil {
		return fmt.Errorf("storage: cannot clear matches: %w", err)
	}
	return nil
}

// SaveMatchResult implements multiplayer.MatchResultSaver.
// This adapter allows the pacing loop to save match results without direct storage dependency.
func (s *Store) SaveMatchResult(result multiplayer.MatchResult) error {
	_, err := s.SaveMatch(MatchRecord{
		Mode:       result.Mode.String(),
		Room:       result.Room,
		Seat:       result.Seat,
		LeftScore:  result.LeftScore,
		RightScore: result.RightScore,
		Winner:     result.Winner,
		EndReason:  result.Reason.String(),
		Frames:     result.Frames,
		DurationMs: result.Duration.Milliseconds(),
	})
	return err
}

// Ensure Store implements MatchResultSaver
var _ multiplayer.MatchResultSaver = (*Store)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (*MatchRecord, error) {
	var rec MatchRecord
	var winner sql.NullString
	var createdAt any

	if err := row.Scan(
		&rec.ID,
		&rec.Mode,
		&rec.Room,
		&rec.Seat,
		&rec.LeftScore,
		&rec.RightScore,
		&winner,
		&rec.EndReason,
		&rec.Frames,
		&rec.DurationMs,
		&createdAt,
	); err != nil {
		return nil, err
	}

	if winner.Valid {
		rec.Winner = winner.String
	}
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
