package internal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Storage provides low-level access to the session database. It knows nothing
// about synthesis or session lifecycle rules; the SessionManager composes its
// methods into the higher-level operations.
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// InsertSession writes a new session row.
func (s *Storage) InsertSession(session *Session) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, created_at, last_accessed_at, magic_link_token, status) VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		formatTime(session.CreatedAt),
		formatTime(session.LastAccessedAt),
		nullString(session.MagicLinkToken),
		session.Status,
	)
	if err != nil {
		return &StorageError{Op: "insert", SessionID: session.ID, Err: err}
	}
	return nil
}

// GetSessionRow fetches a session row by id. Returns ErrSessionNotFound when
// the id does not exist.
func (s *Storage) GetSessionRow(sessionID string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, last_accessed_at, magic_link_token, status FROM sessions WHERE id = ?`,
		sessionID,
	)
	return scanSession(row, sessionID)
}

// FindSessionByToken fetches the session holding the given magic-link token.
// Returns ErrInvalidToken when no session holds it.
func (s *Storage) FindSessionByToken(token string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, last_accessed_at, magic_link_token, status FROM sessions WHERE magic_link_token = ?`,
		token,
	)
	session, err := scanSession(row, "")
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func scanSession(row *sql.Row, sessionID string) (*Session, error) {
	var session Session
	var createdAt, lastAccessedAt string
	var token sql.NullString
	err := row.Scan(&session.ID, &createdAt, &lastAccessedAt, &token, &session.Status)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
	}
	session.CreatedAt = parseTime(createdAt)
	session.LastAccessedAt = parseTime(lastAccessedAt)
	if token.Valid {
		session.MagicLinkToken = token.String
	}
	return &session, nil
}

// TouchSession updates last_accessed_at for the session.
func (s *Storage) TouchSession(sessionID string, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET last_accessed_at = ? WHERE id = ?`,
		formatTime(at), sessionID,
	)
	if err != nil {
		return &StorageError{Op: "update", SessionID: sessionID, Err: err}
	}
	return nil
}

// SetSessionStatus updates the status label for the session.
func (s *Storage) SetSessionStatus(sessionID, status string) error {
	res, err := s.db.Exec(`UPDATE sessions SET status = ? WHERE id = ?`, status, sessionID)
	if err != nil {
		return &StorageError{Op: "update", SessionID: sessionID, Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SetMagicLinkToken overwrites the session's magic-link token. At most one
// token is valid per session at any time.
func (s *Storage) SetMagicLinkToken(sessionID, token string) error {
	res, err := s.db.Exec(`UPDATE sessions SET magic_link_token = ? WHERE id = ?`, token, sessionID)
	if err != nil {
		return &StorageError{Op: "update", SessionID: sessionID, Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListSessions returns all session rows ordered by last access, newest first.
func (s *Storage) ListSessions() ([]*Session, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, last_accessed_at, magic_link_token, status FROM sessions ORDER BY last_accessed_at DESC`,
	)
	if err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var session Session
		var createdAt, lastAccessedAt string
		var token sql.NullString
		if err := rows.Scan(&session.ID, &createdAt, &lastAccessedAt, &token, &session.Status); err != nil {
			return nil, &StorageError{Op: "query", Err: err}
		}
		session.CreatedAt = parseTime(createdAt)
		session.LastAccessedAt = parseTime(lastAccessedAt)
		if token.Valid {
			session.MagicLinkToken = token.String
		}
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}
	return sessions, nil
}

// InsertMessages appends messages to the session's log. Callers are expected
// to pass only new messages; the unique id constraint rejects duplicates.
func (s *Storage) InsertMessages(sessionID string, messages []Message) error {
	for _, msg := range messages {
		var metadata any
		if len(msg.Metadata) > 0 {
			data, err := json.Marshal(msg.Metadata)
			if err != nil {
				return &StorageError{Op: "insert", SessionID: sessionID, Err: fmt.Errorf("encode metadata: %w", err)}
			}
			metadata = string(data)
		}
		_, err := s.db.Exec(
			`INSERT INTO messages (id, session_id, role, content, timestamp, metadata) VALUES (?, ?, ?, ?, ?, ?)`,
			msg.ID, sessionID, msg.Role, msg.Content, formatTime(msg.Timestamp), metadata,
		)
		if err != nil {
			return &StorageError{Op: "insert", SessionID: sessionID, Err: err}
		}
	}
	return nil
}

// LoadMessages returns the session's messages in conversation order:
// timestamp ascending, insertion sequence as the tie-break. The ordering is
// total and stable even when timestamps collide.
func (s *Storage) LoadMessages(sessionID string) ([]Message, error) {
	rows, err := s.db.Query(
		`SELECT id, role, content, timestamp, metadata FROM messages WHERE session_id = ? ORDER BY timestamp ASC, seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var ts string
		var metadata sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &ts, &metadata); err != nil {
			return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
		}
		msg.Timestamp = parseTime(ts)
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &msg.Metadata); err != nil {
				// Log but keep the message; metadata is best-effort.
				LogWarn("Failed to decode metadata for message %s: %v", msg.ID, err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
	}
	return messages, nil
}

// MessageIDs returns the set of message ids already stored for the session.
func (s *Storage) MessageIDs(sessionID string) (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT id FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
	}
	return ids, nil
}

// InsertSpecSnapshot appends a specification snapshot. One row per version;
// rows are never mutated afterward.
func (s *Storage) InsertSpecSnapshot(spec *Specification) error {
	payload, err := json.Marshal(spec)
	if err != nil {
		return &StorageError{Op: "insert", SessionID: spec.ID, Err: fmt.Errorf("encode specification: %w", err)}
	}
	_, err = s.db.Exec(
		`INSERT INTO spec_snapshots (session_id, version, payload, last_updated) VALUES (?, ?, ?, ?)`,
		spec.ID, spec.Version, string(payload), formatTime(spec.LastUpdated),
	)
	if err != nil {
		return &StorageError{Op: "insert", SessionID: spec.ID, Err: err}
	}
	return nil
}

// LatestSpec returns the snapshot with the highest version for the session,
// or nil when no snapshot has been stored yet.
func (s *Storage) LatestSpec(sessionID string) (*Specification, error) {
	row := s.db.QueryRow(
		`SELECT payload FROM spec_snapshots WHERE session_id = ? ORDER BY version DESC LIMIT 1`,
		sessionID,
	)
	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
	}
	var spec Specification
	if err := json.Unmarshal([]byte(payload), &spec); err != nil {
		return nil, &StorageError{Op: "query", SessionID: sessionID, Err: fmt.Errorf("decode specification: %w", err)}
	}
	return &spec, nil
}

// SpecSnapshotCount returns the number of stored snapshots at the given
// version for the session.
func (s *Storage) SpecSnapshotCount(sessionID string, version int) (int, error) {
	row := s.db.QueryRow(
		`SELECT COUNT(*) FROM spec_snapshots WHERE session_id = ? AND version = ?`,
		sessionID, version,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, &StorageError{Op: "query", SessionID: sessionID, Err: err}
	}
	return count, nil
}

// InsertErrorRecord writes an error record for later inspection.
func (s *Storage) InsertErrorRecord(sessionID, message, stack, userInput string, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO error_records (session_id, message, stack, user_input, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, message, stack, userInput, formatTime(at),
	)
	if err != nil {
		return &StorageError{Op: "insert", SessionID: sessionID, Err: err}
	}
	return nil
}

// UpsertLockedSection marks a section as decided for the session.
func (s *Storage) UpsertLockedSection(sessionID string, section LockedSection) error {
	_, err := s.db.Exec(
		`INSERT INTO locked_sections (session_id, name, summary, locked_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, name) DO UPDATE SET summary = excluded.summary, locked_at = excluded.locked_at`,
		sessionID, section.Name, section.Summary, formatTime(section.LockedAt),
	)
	if err != nil {
		return &StorageError{Op: "insert", SessionID: sessionID, Err: err}
	}
	return nil
}

// LockedSections returns all locked sections for the session.
func (s *Storage) LockedSections(sessionID string) ([]LockedSection, error) {
	rows, err := s.db.Query(
		`SELECT name, summary, locked_at FROM locked_sections WHERE session_id = ? ORDER BY name`,
		sessionID,
	)
	if err != nil {
		return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
	}
	defer rows.Close()

	var sections []LockedSection
	for rows.Next() {
		var section LockedSection
		var lockedAt string
		if err := rows.Scan(&section.Name, &section.Summary, &lockedAt); err != nil {
			return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
		}
		section.LockedAt = parseTime(lockedAt)
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", SessionID: sessionID, Err: err}
	}
	return sections, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
