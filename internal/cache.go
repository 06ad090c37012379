package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientCache is a local mirror of session state plus an offline message
// queue, held for resilience against connectivity loss. It is reconciled
// toward the authoritative store only at explicit sync points, never through
// continuous two-way sync.
type ClientCache struct {
	cacheDir string
}

// CacheIndexEntry summarizes one mirrored session in the YAML index.
type CacheIndexEntry struct {
	ID              string `yaml:"id"`
	MessageCount    int    `yaml:"message_count"`
	SpecVersion     int    `yaml:"spec_version"`
	ReadyForHandoff bool   `yaml:"ready_for_handoff"`
	UpdatedAt       string `yaml:"updated_at,omitempty"`
}

// CacheIndex is the YAML index of all mirrored sessions.
type CacheIndex struct {
	Sessions  []CacheIndexEntry `yaml:"sessions"`
	UpdatedAt time.Time         `yaml:"updated_at"`
}

// NewClientCache creates a cache rooted at the given directory.
func NewClientCache(cacheDir string) *ClientCache {
	return &ClientCache{cacheDir: cacheDir}
}

// EnsureCacheDir ensures the cache directory exists.
func (c *ClientCache) EnsureCacheDir() error {
	return os.MkdirAll(c.cacheDir, 0755)
}

// IndexPath returns the path to the session index YAML file.
func (c *ClientCache) IndexPath() string {
	return filepath.Join(c.cacheDir, "sessions.yaml")
}

func (c *ClientCache) mirrorPath(sessionID string) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("session_%s.json", sessionID))
}

func (c *ClientCache) queuePath(sessionID string) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("queue_%s.json", sessionID))
}

// SaveMirror writes the session state to its mirror file and updates the
// index entry.
func (c *ClientCache) SaveMirror(state *SessionState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := c.EnsureCacheDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	if err := os.WriteFile(c.mirrorPath(state.Session.ID), data, 0644); err != nil {
		return err
	}

	return c.updateIndex(state)
}

// LoadMirror loads the mirrored state for a session.
func (c *ClientCache) LoadMirror(sessionID string) (*SessionState, error) {
	data, err := os.ReadFile(c.mirrorPath(sessionID))
	if err != nil {
		return nil, err
	}
	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}

// LoadIndex loads the session index.
func (c *ClientCache) LoadIndex() (*CacheIndex, error) {
	data, err := os.ReadFile(c.IndexPath())
	if err != nil {
		return nil, err
	}
	var index CacheIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &index, nil
}

func (c *ClientCache) saveIndex(index *CacheIndex) error {
	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return os.WriteFile(c.IndexPath(), data, 0644)
}

func (c *ClientCache) updateIndex(state *SessionState) error {
	index, err := c.LoadIndex()
	if err != nil || index == nil {
		index = &CacheIndex{Sessions: make([]CacheIndexEntry, 0)}
	}
	index.UpdatedAt = time.Now()

	entry := CacheIndexEntry{
		ID:              state.Session.ID,
		MessageCount:    len(state.Messages),
		ReadyForHandoff: state.Completeness.ReadyForHandoff,
		UpdatedAt:       state.Session.LastAccessedAt.Format(time.RFC3339),
	}
	if state.Spec != nil {
		entry.SpecVersion = state.Spec.Version
	}

	found := false
	for i, existing := range index.Sessions {
		if existing.ID == entry.ID {
			index.Sessions[i] = entry
			found = true
			break
		}
	}
	if !found {
		index.Sessions = append(index.Sessions, entry)
	}

	return c.saveIndex(index)
}

// QueueOfflineMessage appends a message composed while disconnected to the
// session's local queue.
func (c *ClientCache) QueueOfflineMessage(sessionID string, msg Message) error {
	if err := c.EnsureCacheDir(); err != nil {
		return err
	}
	queued, err := c.OfflineMessages(sessionID)
	if err != nil {
		return err
	}
	queued = append(queued, msg)

	data, err := json.MarshalIndent(queued, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal offline queue: %w", err)
	}
	return os.WriteFile(c.queuePath(sessionID), data, 0644)
}

// OfflineMessages returns the session's queued offline messages in the order
// they were queued. An absent queue file means an empty queue.
func (c *ClientCache) OfflineMessages(sessionID string) ([]Message, error) {
	data, err := os.ReadFile(c.queuePath(sessionID))
	if os.IsNotExist(err) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	var queued []Message
	if err := json.Unmarshal(data, &queued); err != nil {
		return nil, fmt.Errorf("failed to unmarshal offline queue: %w", err)
	}
	return queued, nil
}

// ClearOfflineMessages drops the session's offline queue.
func (c *ClientCache) ClearOfflineMessages(sessionID string) error {
	err := os.Remove(c.queuePath(sessionID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SyncOfflineMessages merges the queued messages onto the end of the
// authoritative conversation history and persists the result. Offline
// messages are assumed strictly causally after the last synced message; no
// reordering or conflict resolution is attempted. The queue is cleared only
// after the persist succeeds; on failure it is retained for a later retry,
// giving at-least-once delivery.
func (c *ClientCache) SyncOfflineMessages(sessionID string, manager *SessionManager) (*SessionState, error) {
	queued, err := c.OfflineMessages(sessionID)
	if err != nil {
		return nil, &SyncError{SessionID: sessionID, Err: err}
	}

	state, err := manager.GetSession(sessionID)
	if err != nil {
		return nil, &SyncError{SessionID: sessionID, Queued: len(queued), Err: err}
	}

	if len(queued) == 0 {
		return state, nil
	}

	state.Messages = append(state.Messages, queued...)
	if err := manager.SaveSessionState(sessionID, state); err != nil {
		return nil, &SyncError{SessionID: sessionID, Queued: len(queued), Err: err}
	}

	if err := c.ClearOfflineMessages(sessionID); err != nil {
		LogWarn("Failed to clear offline queue for session %s: %v", sessionID, err)
	}
	if err := c.SaveMirror(state); err != nil {
		LogWarn("Failed to update mirror for session %s: %v", sessionID, err)
	}

	LogInfo("Synced %d offline message(s) for session %s", len(queued), sessionID)
	return state, nil
}
