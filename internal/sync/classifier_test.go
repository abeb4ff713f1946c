package sync

import (
	"testing"
	"time"

	tasks "google.golang.org/api/tasks/v1"

	"github.com/lotfibennour/pomodoro-todo/internal/task"
)

var (
	t1 = time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	t2 = time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
)

// pairedLocal builds a local task already paired with remote id "g1".
func pairedLocal(name string, complete bool, updatedAt time.Time) *task.Task {
	return &task.Task{
		ID:                 1,
		Name:               name,
		EstimatedPomodoros: 1,
		Priority:           task.PriorityMedium,
		IsComplete:         complete,
		RemoteTaskID:       "g1",
		UpdatedAt:          updatedAt,
	}
}

// pairedRemote builds the remote counterpart carrying the notes payload the
// engine itself would produce for the matching local task.
func pairedRemote(title, status string, updated time.Time) *tasks.Task {
	return &tasks.Task{
		Id:      "g1",
		Title:   title,
		Status:  status,
		Notes:   "Pomodoros: 0/1 | Priority: medium",
		Updated: updated.Format(time.RFC3339),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		local  *task.Task
		remote *tasks.Task
		want   Action
	}{
		{
			name:   "both absent",
			local:  nil,
			remote: nil,
			want:   ActionNone,
		},
		{
			name:   "unpaired remote creates local",
			local:  nil,
			remote: pairedRemote("Water plants", "needsAction", t1),
			want:   ActionCreateLocal,
		},
		{
			name:   "tombstoned remote without local pair is ignored",
			local:  nil,
			remote: &tasks.Task{Id: "g1", Title: "Gone", Deleted: true},
			want:   ActionNone,
		},
		{
			name:   "never-synced local creates remote",
			local:  &task.Task{Name: "Draft report", EstimatedPomodoros: 1, Priority: task.PriorityMedium, UpdatedAt: t1},
			remote: nil,
			want:   ActionCreateRemote,
		},
		{
			name:   "paired local with vanished remote deletes local",
			local:  pairedLocal("Stale", false, t2),
			remote: nil,
			want:   ActionDeleteLocal,
		},
		{
			name:   "paired local with tombstoned remote deletes local",
			local:  pairedLocal("Stale", false, t2),
			remote: &tasks.Task{Id: "g1", Title: "Stale", Deleted: true},
			want:   ActionDeleteLocal,
		},
		{
			name:   "remote newer with differing content updates local",
			local:  pairedLocal("Water plants", false, t1),
			remote: pairedRemote("Water plants", "completed", t2),
			want:   ActionUpdateLocal,
		},
		{
			name:   "remote newer with identical content is a no-op",
			local:  pairedLocal("Water plants", false, t1),
			remote: pairedRemote("Water plants", "needsAction", t2),
			want:   ActionNone,
		},
		{
			name:   "remote newer with notes-only change updates local",
			local:  pairedLocal("Water plants", false, t1),
			remote: &tasks.Task{Id: "g1", Title: "Water plants", Status: "needsAction", Notes: "Pomodoros: 3/4 | Priority: high", Updated: t2.Format(time.RFC3339)},
			want:   ActionUpdateLocal,
		},
		{
			name:   "local newer with differing content updates remote",
			local:  pairedLocal("Renamed", false, t2),
			remote: pairedRemote("Original", "needsAction", t1),
			want:   ActionUpdateRemote,
		},
		{
			name:   "equal timestamps with differing content favor local",
			local:  pairedLocal("A", false, t1),
			remote: pairedRemote("B", "needsAction", t1),
			want:   ActionUpdateRemote,
		},
		{
			name:   "reconciled pairing is a no-op",
			local:  pairedLocal("Same", false, t1),
			remote: pairedRemote("Same", "needsAction", t1),
			want:   ActionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.local, tt.remote); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name   string
		local  *task.Task
		remote *tasks.Task
		want   bool
	}{
		{
			name:   "equal timestamps differing content",
			local:  pairedLocal("A", false, t1),
			remote: pairedRemote("B", "needsAction", t1),
			want:   true,
		},
		{
			name:   "equal timestamps identical content",
			local:  pairedLocal("Same", false, t1),
			remote: pairedRemote("Same", "needsAction", t1),
			want:   false,
		},
		{
			name:   "differing timestamps differing content",
			local:  pairedLocal("A", false, t1),
			remote: pairedRemote("B", "needsAction", t2),
			want:   false,
		},
		{
			name:   "unpaired sides",
			local:  nil,
			remote: pairedRemote("B", "needsAction", t1),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConflict(tt.local, tt.remote); got != tt.want {
				t.Errorf("IsConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActionString(t *testing.T) {
	for a, want := range map[Action]string{
		ActionNone:         "none",
		ActionCreateLocal:  "create-local",
		ActionCreateRemote: "create-remote",
		ActionUpdateLocal:  "update-local",
		ActionUpdateRemote: "update-remote",
		ActionDeleteLocal:  "delete-local",
		ActionDeleteRemote: "delete-remote",
	} {
		if got := a.String(); got != want {
			t.Errorf("Action(%d).String() = %q, want %q", a, got, want)
		}
	}
}
