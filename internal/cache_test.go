package internal_test

import (
	"testing"
	"time"

	"github.com/specsmith/specsmith/internal"
	"github.com/specsmith/specsmith/testutil"
)

func newCache(t *testing.T) *internal.ClientCache {
	t.Helper()
	return internal.NewClientCache(testutil.CreateTempDir(t))
}

func queuedMessage(id, content string, at time.Time) internal.Message {
	return internal.Message{
		ID:        id,
		Role:      internal.RoleUser,
		Content:   content,
		Timestamp: at,
		Metadata:  map[string]string{"source": "offline-queue"},
	}
}

func TestClientCache_MirrorRoundTrip(t *testing.T) {
	cache := newCache(t)

	state := &internal.SessionState{
		Session: internal.Session{ID: "s1", Status: internal.StatusActive, LastAccessedAt: time.Now()},
		Messages: []internal.Message{
			{ID: "m1", Role: internal.RoleUser, Content: "hello", Timestamp: time.Now()},
		},
		Spec: internal.NewSpecification("s1"),
	}
	state.Spec.Version = 2

	if err := cache.SaveMirror(state); err != nil {
		t.Fatalf("SaveMirror failed: %v", err)
	}

	got, err := cache.LoadMirror("s1")
	if err != nil {
		t.Fatalf("LoadMirror failed: %v", err)
	}
	if got.Session.ID != "s1" || len(got.Messages) != 1 || got.Spec.Version != 2 {
		t.Errorf("mirror = %+v", got)
	}
}

func TestClientCache_IndexTracksMirrors(t *testing.T) {
	cache := newCache(t)

	for _, id := range []string{"s1", "s2"} {
		state := &internal.SessionState{
			Session: internal.Session{ID: id, Status: internal.StatusActive, LastAccessedAt: time.Now()},
			Spec:    internal.NewSpecification(id),
		}
		if err := cache.SaveMirror(state); err != nil {
			t.Fatal(err)
		}
	}
	// Re-saving s1 updates its entry rather than duplicating it.
	state := &internal.SessionState{
		Session: internal.Session{ID: "s1", Status: internal.StatusActive, LastAccessedAt: time.Now()},
		Messages: []internal.Message{
			{ID: "m1", Role: internal.RoleUser, Content: "hi", Timestamp: time.Now()},
		},
		Spec: internal.NewSpecification("s1"),
	}
	if err := cache.SaveMirror(state); err != nil {
		t.Fatal(err)
	}

	index, err := cache.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if len(index.Sessions) != 2 {
		t.Fatalf("index entries = %d, want 2", len(index.Sessions))
	}
	for _, entry := range index.Sessions {
		if entry.ID == "s1" && entry.MessageCount != 1 {
			t.Errorf("s1 message count = %d, want 1", entry.MessageCount)
		}
	}
}

func TestClientCache_OfflineQueueOrder(t *testing.T) {
	cache := newCache(t)
	now := time.Now()

	for i, content := range []string{"one", "two", "three"} {
		msg := queuedMessage(string(rune('a'+i)), content, now.Add(time.Duration(i)*time.Second))
		if err := cache.QueueOfflineMessage("s1", msg); err != nil {
			t.Fatalf("QueueOfflineMessage failed: %v", err)
		}
	}

	queued, err := cache.OfflineMessages("s1")
	if err != nil {
		t.Fatalf("OfflineMessages failed: %v", err)
	}
	if len(queued) != 3 {
		t.Fatalf("queued = %d, want 3", len(queued))
	}
	for i, want := range []string{"one", "two", "three"} {
		if queued[i].Content != want {
			t.Errorf("queued[%d] = %q, want %q", i, queued[i].Content, want)
		}
	}
}

func TestClientCache_OfflineMessages_EmptyWithoutQueue(t *testing.T) {
	cache := newCache(t)
	queued, err := cache.OfflineMessages("never-queued")
	if err != nil {
		t.Fatalf("absent queue should not be an error: %v", err)
	}
	if len(queued) != 0 {
		t.Errorf("queued = %d, want 0", len(queued))
	}
}

func TestSyncOfflineMessages_AppendsAfterHistory(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	defer db.Close()
	manager := internal.NewSessionManager(internal.NewStorage(db))
	cache := newCache(t)

	state, err := manager.CreateSession()
	if err != nil {
		t.Fatal(err)
	}
	id := state.Session.ID

	now := time.Now()
	state.Messages = []internal.Message{
		{ID: "m1", Role: internal.RoleUser, Content: "synced-1", Timestamp: now},
		{ID: "m2", Role: internal.RoleAssistant, Content: "synced-2", Timestamp: now.Add(time.Second)},
		{ID: "m3", Role: internal.RoleUser, Content: "synced-3", Timestamp: now.Add(2 * time.Second)},
	}
	if err := manager.SaveSessionState(id, state); err != nil {
		t.Fatal(err)
	}

	// Two messages composed while offline.
	if err := cache.QueueOfflineMessage(id, queuedMessage("q1", "offline-1", now.Add(3*time.Second))); err != nil {
		t.Fatal(err)
	}
	if err := cache.QueueOfflineMessage(id, queuedMessage("q2", "offline-2", now.Add(4*time.Second))); err != nil {
		t.Fatal(err)
	}

	synced, err := cache.SyncOfflineMessages(id, manager)
	if err != nil {
		t.Fatalf("SyncOfflineMessages failed: %v", err)
	}
	if len(synced.Messages) != 5 {
		t.Fatalf("messages = %d, want 5", len(synced.Messages))
	}

	got, err := manager.GetSession(id)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"synced-1", "synced-2", "synced-3", "offline-1", "offline-2"}
	if len(got.Messages) != len(want) {
		t.Fatalf("persisted messages = %d, want %d", len(got.Messages), len(want))
	}
	for i, content := range want {
		if got.Messages[i].Content != content {
			t.Errorf("messages[%d] = %q, want %q", i, got.Messages[i].Content, content)
		}
	}

	// Queue cleared after successful delivery.
	queued, err := cache.OfflineMessages(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(queued) != 0 {
		t.Errorf("queue should be empty after sync, got %d", len(queued))
	}
}

func TestSyncOfflineMessages_RetainsQueueOnFailure(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	defer db.Close()
	manager := internal.NewSessionManager(internal.NewStorage(db))
	manager.RejectAbandonedWrites = true
	cache := newCache(t)

	state, err := manager.CreateSession()
	if err != nil {
		t.Fatal(err)
	}
	id := state.Session.ID
	if err := manager.AbandonSession(id); err != nil {
		t.Fatal(err)
	}

	if err := cache.QueueOfflineMessage(id, queuedMessage("q1", "offline-1", time.Now())); err != nil {
		t.Fatal(err)
	}

	// Persist fails because writes to the abandoned session are rejected.
	_, err = cache.SyncOfflineMessages(id, manager)
	if err == nil {
		t.Fatal("expected sync failure")
	}

	queued, qerr := cache.OfflineMessages(id)
	if qerr != nil {
		t.Fatal(qerr)
	}
	if len(queued) != 1 {
		t.Errorf("queue must be retained on failure, got %d entries", len(queued))
	}
}

func TestSyncOfflineMessages_Idempotent(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	defer db.Close()
	manager := internal.NewSessionManager(internal.NewStorage(db))
	cache := newCache(t)

	state, err := manager.CreateSession()
	if err != nil {
		t.Fatal(err)
	}
	id := state.Session.ID

	if err := cache.QueueOfflineMessage(id, queuedMessage("q1", "offline-1", time.Now())); err != nil {
		t.Fatal(err)
	}

	// At-least-once delivery: a repeated sync of the same queue must not
	// duplicate the message.
	if _, err := cache.SyncOfflineMessages(id, manager); err != nil {
		t.Fatal(err)
	}
	if err := cache.QueueOfflineMessage(id, queuedMessage("q1", "offline-1", time.Now())); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.SyncOfflineMessages(id, manager); err != nil {
		t.Fatal(err)
	}

	got, err := manager.GetSession(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 1 {
		t.Errorf("messages = %d, want 1 (no duplicates)", len(got.Messages))
	}
}

func TestSyncOfflineMessages_EmptyQueueIsNoOp(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	defer db.Close()
	manager := internal.NewSessionManager(internal.NewStorage(db))
	cache := newCache(t)

	state, err := manager.CreateSession()
	if err != nil {
		t.Fatal(err)
	}

	synced, err := cache.SyncOfflineMessages(state.Session.ID, manager)
	if err != nil {
		t.Fatalf("empty queue sync failed: %v", err)
	}
	if len(synced.Messages) != 0 {
		t.Errorf("messages = %d, want 0", len(synced.Messages))
	}
}

func TestClearOfflineMessages_AbsentQueue(t *testing.T) {
	cache := newCache(t)
	if err := cache.ClearOfflineMessages("never-queued"); err != nil {
		t.Errorf("clearing an absent queue should succeed: %v", err)
	}
}
