package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lotfibennour/pomodoro-todo/internal/task"
)

// setupTestStore creates a temporary database for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return s
}

func insertTestTask(t *testing.T, s *Store, name string) *task.Task {
	t.Helper()

	tk, err := s.Insert(&task.Task{Name: name})
	if err != nil {
		t.Fatalf("failed to insert task %q: %v", name, err)
	}
	return tk
}

func TestInsertAndGet(t *testing.T) {
	s := setupTestStore(t)

	tk, err := s.Insert(&task.Task{
		Name:               "Write report",
		EstimatedPomodoros: 3,
		Priority:           task.PriorityHigh,
		Notes:              "for Monday",
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if tk.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if tk.UpdatedAt.IsZero() {
		t.Fatal("expected store-set updated_at")
	}

	got, err := s.Get(tk.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for existing task")
	}
	if got.Name != "Write report" || got.EstimatedPomodoros != 3 || got.Priority != task.PriorityHigh {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Notes != "for Monday" {
		t.Errorf("notes = %q, want %q", got.Notes, "for Monday")
	}
}

func TestInsertDefaults(t *testing.T) {
	s := setupTestStore(t)

	tk := insertTestTask(t, s, "Defaulted")
	if tk.EstimatedPomodoros != 1 {
		t.Errorf("estimated = %d, want 1", tk.EstimatedPomodoros)
	}
	if tk.Priority != task.PriorityMedium {
		t.Errorf("priority = %q, want medium", tk.Priority)
	}
}

func TestInsertInvalid(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.Insert(&task.Task{Name: ""}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestGetMissing(t *testing.T) {
	s := setupTestStore(t)

	got, err := s.Get(999)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing task, got %+v", got)
	}
}

func TestUpdateRefreshesTimestamp(t *testing.T) {
	s := setupTestStore(t)

	tk := insertTestTask(t, s, "Original")
	before := tk.UpdatedAt

	time.Sleep(10 * time.Millisecond)

	tk.Name = "Renamed"
	tk.IsComplete = true
	if err := s.Update(tk); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := s.Get(tk.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Renamed" || !got.IsComplete {
		t.Errorf("update not applied: %+v", got)
	}
	if !got.UpdatedAt.After(before) {
		t.Errorf("updated_at not refreshed: before=%v after=%v", before, got.UpdatedAt)
	}
}

func TestUpdateMissing(t *testing.T) {
	s := setupTestStore(t)

	tk := &task.Task{ID: 42, Name: "Ghost", EstimatedPomodoros: 1, Priority: task.PriorityLow}
	if err := s.Update(tk); err == nil {
		t.Error("expected error updating missing task")
	}
}

func TestSetRemoteIDKeepsTimestamp(t *testing.T) {
	s := setupTestStore(t)

	tk := insertTestTask(t, s, "Paired")
	before := tk.UpdatedAt

	time.Sleep(10 * time.Millisecond)

	if err := s.SetRemoteID(tk.ID, "g-abc123"); err != nil {
		t.Fatalf("SetRemoteID failed: %v", err)
	}

	got, err := s.GetByRemoteID("g-abc123")
	if err != nil {
		t.Fatalf("GetByRemoteID failed: %v", err)
	}
	if got == nil || got.ID != tk.ID {
		t.Fatalf("pairing lookup failed: %+v", got)
	}
	if !got.UpdatedAt.Equal(before) {
		t.Errorf("SetRemoteID must not touch updated_at: before=%v after=%v", before, got.UpdatedAt)
	}
}

func TestRemoteIDUnique(t *testing.T) {
	s := setupTestStore(t)

	a := insertTestTask(t, s, "First")
	b := insertTestTask(t, s, "Second")

	if err := s.SetRemoteID(a.ID, "g-dup"); err != nil {
		t.Fatalf("SetRemoteID failed: %v", err)
	}
	if err := s.SetRemoteID(b.ID, "g-dup"); err == nil {
		t.Error("expected unique constraint violation for duplicate remote id")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := setupTestStore(t)

	tk := insertTestTask(t, s, "Doomed")

	if err := s.Delete(tk.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(tk.ID); err != nil {
		t.Errorf("second Delete should be a no-op, got: %v", err)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 tasks, got %d", count)
	}
}

func TestList(t *testing.T) {
	s := setupTestStore(t)

	insertTestTask(t, s, "One")
	insertTestTask(t, s, "Two")
	insertTestTask(t, s, "Three")

	tasks, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].Name != "One" || tasks[2].Name != "Three" {
		t.Errorf("unexpected order: %q, %q, %q", tasks[0].Name, tasks[1].Name, tasks[2].Name)
	}
}

func TestDeleteSyncedTaskLeavesTombstone(t *testing.T) {
	s := setupTestStore(t)

	tk := insertTestTask(t, s, "Synced")
	if err := s.SetRemoteID(tk.ID, "g42"); err != nil {
		t.Fatalf("SetRemoteID failed: %v", err)
	}

	if err := s.Delete(tk.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	tombs, err := s.Tombstones()
	if err != nil {
		t.Fatalf("Tombstones failed: %v", err)
	}
	if len(tombs) != 1 || tombs[0] != "g42" {
		t.Fatalf("tombstones = %v, want [g42]", tombs)
	}

	if err := s.ClearTombstone("g42"); err != nil {
		t.Fatalf("ClearTombstone failed: %v", err)
	}
	tombs, err = s.Tombstones()
	if err != nil {
		t.Fatalf("Tombstones failed: %v", err)
	}
	if len(tombs) != 0 {
		t.Errorf("tombstones = %v, want empty after clear", tombs)
	}

	// Clearing again is a no-op.
	if err := s.ClearTombstone("g42"); err != nil {
		t.Errorf("second ClearTombstone failed: %v", err)
	}
}

func TestDeleteUnsyncedTaskLeavesNoTombstone(t *testing.T) {
	s := setupTestStore(t)

	tk := insertTestTask(t, s, "Local only")
	if err := s.Delete(tk.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	tombs, err := s.Tombstones()
	if err != nil {
		t.Fatalf("Tombstones failed: %v", err)
	}
	if len(tombs) != 0 {
		t.Errorf("tombstones = %v, want empty", tombs)
	}
}
