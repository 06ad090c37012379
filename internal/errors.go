package internal

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id does not exist. Callers
// must check for it; absence is not an exceptional condition.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidToken is returned when no session holds the presented magic-link
// token. Tokens never expire by time, but a regenerated token supersedes the
// old one, so "invalid or expired" is the user-facing wording.
var ErrInvalidToken = errors.New("invalid or expired token")

// StorageError represents errors reading or writing the session database.
type StorageError struct {
	Op        string // "open", "query", "insert", "update"
	SessionID string
	Err       error
}

func (e *StorageError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage error: %s [%s]: %v", e.Op, e.SessionID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SynthesisError represents a hard failure of a synthesis turn, i.e. the
// gateway call itself failed. Malformed model output is never wrapped in
// this type; it is handled by the fallback path instead.
type SynthesisError struct {
	SessionID string
	Mode      string // "update" or "finalize"
	Err       error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis error [%s/%s]: %v", e.SessionID, e.Mode, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// SyncError represents a failed offline-queue flush. The queue is retained
// when this is returned, so a later retry can deliver the messages.
type SyncError struct {
	SessionID string
	Queued    int
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync error [%s] (%d queued): %v", e.SessionID, e.Queued, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
