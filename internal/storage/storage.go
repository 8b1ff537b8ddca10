// Package storage persists tasks, the completion ledger, the active focus
// session, and the unlocked-badge set to SQLite. In-memory state is
// authoritative for the running session; this layer is the durability
// boundary behind it.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs schema migrations once, keyed by PRAGMA user_version, so
// record shapes are versioned explicitly instead of patched ad hoc on load.
func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS tasks (
		id                TEXT PRIMARY KEY,
		title             TEXT NOT NULL,
		note              TEXT NOT NULL DEFAULT '',
		estimated_minutes INTEGER NOT NULL DEFAULT 0,
		due_date          TEXT,
		priority          TEXT NOT NULL DEFAULT 'Medium',
		tags              TEXT NOT NULL DEFAULT '[]',
		recurrence        TEXT NOT NULL DEFAULT 'None',
		subtasks          TEXT NOT NULL DEFAULT '[]',
		status            TEXT NOT NULL DEFAULT 'To Do',
		completed         INTEGER NOT NULL DEFAULT 0,
		completed_at      TEXT,
		created_at        TEXT NOT NULL,
		sessions          INTEGER NOT NULL DEFAULT 0,
		position          INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS history (
		task_id           TEXT NOT NULL,
		title             TEXT NOT NULL,
		tags              TEXT NOT NULL DEFAULT '[]',
		estimated_minutes INTEGER NOT NULL DEFAULT 0,
		priority          TEXT NOT NULL DEFAULT 'Medium',
		completed_at      TEXT NOT NULL,
		day               TEXT NOT NULL,
		PRIMARY KEY (task_id, day)
	);

	CREATE INDEX IF NOT EXISTS idx_history_day ON history(day);

	CREATE TABLE IF NOT EXISTS active_session (
		id                 INTEGER PRIMARY KEY CHECK (id = 1),
		task_id            TEXT NOT NULL,
		task_title         TEXT NOT NULL,
		phase              TEXT NOT NULL,
		seconds_remaining  INTEGER NOT NULL,
		sessions_remaining INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS unlocked_badges (
		badge       TEXT PRIMARY KEY,
		unlocked_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('focus_seconds',   '1500'),
		('break_seconds',   '300'),
		('session_minutes', '30'),
		('retention_days',  '7');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/studydeck/studydeck.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "studydeck", "studydeck.db"), nil
}
