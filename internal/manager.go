package internal

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// SessionManager orchestrates session lifecycle, aggregated reads and writes
// of the message log and specification history, magic-link issuance and
// redemption, and error-state preservation.
//
// It is an explicitly constructed component: callers create one with their
// own Storage and pass it wherever it is needed. Each session is assumed to
// have a single writer at a time; multi-step saves are not wrapped in a
// transaction.
type SessionManager struct {
	storage *Storage

	// RejectAbandonedWrites gates SaveSessionState for abandoned sessions.
	// Off by default: "abandoned" is a reporting label, not an access control.
	RejectAbandonedWrites bool
}

// NewSessionManager creates a SessionManager backed by the given storage.
func NewSessionManager(storage *Storage) *SessionManager {
	return &SessionManager{storage: storage}
}

// CreateSession allocates a fresh session with an empty message log and an
// in-memory version-0 specification. The version-0 specification is never
// persisted; the first stored snapshot comes from the synthesis engine.
func (m *SessionManager) CreateSession() (*SessionState, error) {
	now := time.Now()
	session := Session{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		LastAccessedAt: now,
		Status:         StatusActive,
	}
	if err := m.storage.InsertSession(&session); err != nil {
		return nil, err
	}
	LogDebug("Created session %s", session.ID)
	return &SessionState{
		Session:      session,
		Messages:     []Message{},
		Spec:         NewSpecification(session.ID),
		Completeness: EvaluateCompleteness(RequiredSections, now),
	}, nil
}

// GetSession reconstructs the full session state: the session row, all
// messages in conversation order, and the latest specification snapshot (or
// the in-memory version-0 default when none has been stored). Every
// successful read refreshes lastAccessedAt. Returns ErrSessionNotFound when
// the id does not exist.
func (m *SessionManager) GetSession(sessionID string) (*SessionState, error) {
	session, err := m.storage.GetSessionRow(sessionID)
	if err != nil {
		return nil, err
	}

	messages, err := m.storage.LoadMessages(sessionID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []Message{}
	}

	spec, err := m.storage.LatestSpec(sessionID)
	if err != nil {
		return nil, err
	}
	if spec == nil {
		spec = NewSpecification(sessionID)
	}

	now := time.Now()
	if err := m.storage.TouchSession(sessionID, now); err != nil {
		return nil, err
	}
	session.LastAccessedAt = now

	return &SessionState{
		Session:      *session,
		Messages:     messages,
		Spec:         spec,
		Completeness: EvaluateCompleteness(VerifySections(spec), now),
	}, nil
}

// SaveSessionState persists the state incrementally and idempotently. New
// messages are identified by id set-difference against the stored log, so
// re-saving an already-saved state is a no-op for messages. The specification
// snapshot is written only when its version differs from the latest stored
// version, which keeps the version history append-only with one row per
// version.
func (m *SessionManager) SaveSessionState(sessionID string, state *SessionState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	session, err := m.storage.GetSessionRow(sessionID)
	if err != nil {
		return err
	}
	if m.RejectAbandonedWrites && session.Status == StatusAbandoned {
		return fmt.Errorf("session %s is abandoned", sessionID)
	}

	stored, err := m.storage.MessageIDs(sessionID)
	if err != nil {
		return err
	}
	var delta []Message
	for _, msg := range state.Messages {
		if !stored[msg.ID] {
			delta = append(delta, msg)
		}
	}
	if len(delta) > 0 {
		if err := m.storage.InsertMessages(sessionID, delta); err != nil {
			return err
		}
		LogDebug("Persisted %d new message(s) for session %s", len(delta), sessionID)
	}

	if state.Spec != nil {
		latest, err := m.storage.LatestSpec(sessionID)
		if err != nil {
			return err
		}
		latestVersion := 0
		if latest != nil {
			latestVersion = latest.Version
		}
		if state.Spec.Version != latestVersion {
			snapshot := *state.Spec
			snapshot.ID = sessionID
			if snapshot.LastUpdated.IsZero() {
				snapshot.LastUpdated = time.Now()
			}
			if err := m.storage.InsertSpecSnapshot(&snapshot); err != nil {
				return err
			}
			LogDebug("Stored specification v%d for session %s", snapshot.Version, sessionID)
		}
	}

	return m.storage.TouchSession(sessionID, time.Now())
}

// GenerateMagicLink mints a new cryptographically random token for the
// session and stores it, overwriting any previous token. Tokens do not
// expire; regenerating is the only way to invalidate one.
func (m *SessionManager) GenerateMagicLink(sessionID string) (string, error) {
	token, err := newMagicToken()
	if err != nil {
		return "", err
	}
	if err := m.storage.SetMagicLinkToken(sessionID, token); err != nil {
		return "", err
	}
	return token, nil
}

// RestoreSessionFromMagicLink resolves a magic-link token to its session and
// returns the full state, exactly as GetSession would. Tokens are persistent
// shareable links, not one-time redemptions. Returns ErrInvalidToken when no
// session holds the token.
func (m *SessionManager) RestoreSessionFromMagicLink(token string) (*SessionState, error) {
	session, err := m.storage.FindSessionByToken(token)
	if err != nil {
		return nil, err
	}
	return m.GetSession(session.ID)
}

// AbandonSession marks the session abandoned. Data stays fully retrievable;
// the label only affects reporting (and writes, when RejectAbandonedWrites
// is set). There is no transition back to active.
func (m *SessionManager) AbandonSession(sessionID string) error {
	return m.storage.SetSessionStatus(sessionID, StatusAbandoned)
}

// PreserveErrorState records an error plus the user input that triggered it,
// and persists the current state when one is supplied, so a mid-conversation
// failure does not lose the user's last input. Every failure inside this path
// is swallowed and logged: error preservation must never mask the original
// error being reported to the caller.
func (m *SessionManager) PreserveErrorState(sessionID string, cause error, userInput string, state *SessionState) {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	stack := string(debug.Stack())

	if err := m.storage.InsertErrorRecord(sessionID, message, stack, userInput, time.Now()); err != nil {
		LogError("Failed to preserve error record for session %s: %v", sessionID, err)
	}

	if state != nil {
		if err := m.SaveSessionState(sessionID, state); err != nil {
			LogError("Failed to preserve session state for %s: %v", sessionID, err)
		}
	}
}

// ReconstructContextAfterError re-reads the session state, returning nil on
// any failure. Best-effort recovery only; never returns an error.
func (m *SessionManager) ReconstructContextAfterError(sessionID string) *SessionState {
	state, err := m.GetSession(sessionID)
	if err != nil {
		LogWarn("Failed to reconstruct context for session %s: %v", sessionID, err)
		return nil
	}
	return state
}

// ListSessions returns all sessions, newest first.
func (m *SessionManager) ListSessions() ([]*Session, error) {
	return m.storage.ListSessions()
}

// LockSection marks a specification section as decided for the session.
// Advisory only.
func (m *SessionManager) LockSection(sessionID, name, summary string) error {
	return m.storage.UpsertLockedSection(sessionID, LockedSection{
		Name:     name,
		Summary:  summary,
		LockedAt: time.Now(),
	})
}

// LockedSections returns the session's locked sections.
func (m *SessionManager) LockedSections(sessionID string) ([]LockedSection, error) {
	return m.storage.LockedSections(sessionID)
}

// newMagicToken returns a URL-safe random token.
func newMagicToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
