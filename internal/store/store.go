package store

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"

	_ "modernc.org/sqlite"

	"github.com/dgrieve/ironlance/internal/engine"
)

// ErrNotFound is returned when no replay or result exists for a session.
var ErrNotFound = errors.New("not found")

// Store persists finished fights in SQLite: one gzip-compressed replay
// blob and one result row per session.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS session_replays (
			session_id  TEXT PRIMARY KEY,
			replay_data BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_results (
			session_id TEXT PRIMARY KEY,
			victory    INTEGER NOT NULL,
			rounds     INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReplay gzips and stores raw replay JSON, replacing any prior blob.
func (s *Store) SaveReplay(sessionID string, raw []byte) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return fmt.Errorf("compress replay: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compress replay: %w", err)
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO session_replays (session_id, replay_data) VALUES (?, ?)`,
		sessionID, buf.Bytes())
	if err != nil {
		return fmt.Errorf("store replay: %w", err)
	}
	return nil
}

// LoadReplay returns the decompressed replay JSON for a session.
func (s *Store) LoadReplay(sessionID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(
		`SELECT replay_data FROM session_replays WHERE session_id = ?`,
		sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load replay: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress replay: %w", err)
	}
	defer gz.Close()
	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompress replay: %w", err)
	}
	return raw, nil
}

// SaveResult records the terminal outcome of a session.
func (s *Store) SaveResult(sessionID string, res engine.Result) error {
	victory := 0
	if res.Victory {
		victory = 1
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO session_results (session_id, victory, rounds) VALUES (?, ?, ?)`,
		sessionID, victory, res.RoundsElapsed)
	if err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

// LoadResult returns the stored outcome for a session.
func (s *Store) LoadResult(sessionID string) (victory bool, rounds int, err error) {
	var v int
	err = s.db.QueryRow(
		`SELECT victory, rounds FROM session_results WHERE session_id = ?`,
		sessionID).Scan(&v, &rounds)
	if err == sql.ErrNoRows {
		return false, 0, ErrNotFound
	}
	if err != nil {
		return false, 0, fmt.Errorf("load result: %w", err)
	}
	return v == 1, rounds, nil
}
