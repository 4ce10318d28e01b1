package outbox

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outbox.db"), "outbox")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueDrainOrder(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().Add(-time.Minute)
	for i, id := range []string{"a", "b", "c"} {
		item := Item{
			ID:        id,
			SessionID: "s1",
			Data:      json.RawMessage(`{"body":"hi"}`),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.Enqueue(item); err != nil {
			t.Fatalf("Enqueue %q: %v", id, err)
		}
	}

	items, err := store.GetBatch(10)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("batch size = %d, want 3", len(items))
	}
	for i, want := range []string{"a", "b", "c"} {
		if items[i].ID != want {
			t.Errorf("items[%d].ID = %q, want %q", i, items[i].ID, want)
		}
	}
	if items[0].Kind != KindMessage {
		t.Errorf("default kind = %q, want %q", items[0].Kind, KindMessage)
	}
}

func TestGetBatchLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		if err := store.Enqueue(Item{SessionID: "s1"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	items, err := store.GetBatch(2)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("batch size = %d, want 2", len(items))
	}

	// Peeking does not consume.
	size, err := store.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 5 {
		t.Errorf("size after peek = %d, want 5", size)
	}
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)

	if err := store.Enqueue(Item{ID: "keep", SessionID: "s1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := store.Enqueue(Item{ID: "drop", SessionID: "s1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	items, err := store.GetBatch(10)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	for _, item := range items {
		if item.ID == "drop" {
			if err := store.Remove(item); err != nil {
				t.Fatalf("Remove: %v", err)
			}
		}
	}

	remaining, err := store.GetBatch(10)
	if err != nil {
		t.Fatalf("GetBatch after remove: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "keep" {
		t.Fatalf("remaining = %+v, want only %q", remaining, "keep")
	}

	// Removing by id alone works for items that never round-tripped.
	if err := store.Remove(Item{ID: "keep"}); err != nil {
		t.Fatalf("Remove by id: %v", err)
	}
	size, _ := store.Size()
	if size != 0 {
		t.Errorf("size = %d, want 0", size)
	}
}

func TestRequeueBumpsTimestamp(t *testing.T) {
	store := openTestStore(t)

	old := Item{ID: "x", SessionID: "s1", Timestamp: time.Now().Add(-time.Hour), Retries: 1}
	if err := store.Enqueue(old); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	items, err := store.GetBatch(1)
	if err != nil || len(items) != 1 {
		t.Fatalf("GetBatch: %v, items = %d", err, len(items))
	}
	if err := store.Remove(items[0]); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	items[0].Retries++
	if err := store.Requeue(items[0]); err != nil {
		t.Fatalf("Requeue: %v", err)
	}

	requeued, err := store.GetBatch(1)
	if err != nil || len(requeued) != 1 {
		t.Fatalf("GetBatch after requeue: %v, items = %d", err, len(requeued))
	}
	if requeued[0].Retries != 2 {
		t.Errorf("retries = %d, want 2", requeued[0].Retries)
	}
	if !requeued[0].Timestamp.After(old.Timestamp) {
		t.Errorf("timestamp not bumped: %v", requeued[0].Timestamp)
	}
}

func TestCleanup(t *testing.T) {
	store := openTestStore(t)

	if err := store.Enqueue(Item{ID: "old", Timestamp: time.Now().Add(-48 * time.Hour)}); err != nil {
		t.Fatalf("Enqueue old: %v", err)
	}
	if err := store.Enqueue(Item{ID: "fresh", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Enqueue fresh: %v", err)
	}

	if err := store.Cleanup(time.Now().Add(-24 * time.Hour)); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	items, err := store.GetBatch(10)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(items) != 1 || items[0].ID != "fresh" {
		t.Fatalf("items = %+v, want only %q", items, "fresh")
	}
}
