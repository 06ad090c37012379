package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenDatabase opens (or creates) the SQLite database at the given path and
// ensures the schema exists.
func OpenDatabase(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &StorageError{Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("ping failed: %w", err)}
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates all tables if they do not exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	last_accessed_at TEXT NOT NULL,
	magic_link_token TEXT UNIQUE,
	status TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS messages (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	metadata TEXT
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages (session_id, timestamp, seq);

CREATE TABLE IF NOT EXISTS spec_snapshots (
	session_id TEXT NOT NULL,
	version INTEGER NOT NULL,
	payload TEXT NOT NULL,
	last_updated TEXT NOT NULL,
	PRIMARY KEY (session_id, version)
);

CREATE TABLE IF NOT EXISTS error_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	message TEXT NOT NULL,
	stack TEXT,
	user_input TEXT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS locked_sections (
	session_id TEXT NOT NULL,
	name TEXT NOT NULL,
	summary TEXT,
	locked_at TEXT NOT NULL,
	PRIMARY KEY (session_id, name)
);
`
	if _, err := db.Exec(schema); err != nil {
		return &StorageError{Op: "open", Err: fmt.Errorf("create schema: %w", err)}
	}
	return nil
}
