package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database with the full schema
// for testing.
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// A pooled second connection would see a different empty memory database.
	db.SetMaxOpenConns(1)

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
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

// InsertSession inserts a session row directly.
func InsertSession(t *testing.T, db *sql.DB, id, createdAt, status string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO sessions (id, created_at, last_accessed_at, status) VALUES (?, ?, ?, ?)`,
		id, createdAt, createdAt, status,
	)
	if err != nil {
		t.Fatalf("Failed to insert session %s: %v", id, err)
	}
}

// InsertMessage inserts a message row directly.
func InsertMessage(t *testing.T, db *sql.DB, id, sessionID, role, content, timestamp string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO messages (id, session_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?)`,
		id, sessionID, role, content, timestamp,
	)
	if err != nil {
		t.Fatalf("Failed to insert message %s: %v", id, err)
	}
}

// InsertSpecSnapshot inserts a specification snapshot row directly.
func InsertSpecSnapshot(t *testing.T, db *sql.DB, sessionID string, version int, payload, lastUpdated string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO spec_snapshots (session_id, version, payload, last_updated) VALUES (?, ?, ?, ?)`,
		sessionID, version, payload, lastUpdated,
	)
	if err != nil {
		t.Fatalf("Failed to insert spec snapshot v%d: %v", version, err)
	}
}
