package sync

import (
	tasks "google.golang.org/api/tasks/v1"

	"github.com/lotfibennour/pomodoro-todo/internal/gtasks"
	"github.com/lotfibennour/pomodoro-todo/internal/task"
)

// Action is the reconciliation decision for one (local, remote) pairing.
type Action int

const (
	// ActionNone means the pairing is already reconciled.
	ActionNone Action = iota
	// ActionCreateLocal mirrors a remote task into the local store.
	ActionCreateLocal
	// ActionCreateRemote pushes a never-synced local task to the remote side.
	ActionCreateRemote
	// ActionUpdateLocal applies a newer remote state to the local copy.
	ActionUpdateLocal
	// ActionUpdateRemote pushes the local state over a stale remote copy.
	ActionUpdateRemote
	// ActionDeleteLocal removes the local copy of a remotely deleted task.
	ActionDeleteLocal
	// ActionDeleteRemote removes a remote task no local task references.
	ActionDeleteRemote
)

// String returns a human-readable representation of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionCreateLocal:
		return "create-local"
	case ActionCreateRemote:
		return "create-remote"
	case ActionUpdateLocal:
		return "update-local"
	case ActionUpdateRemote:
		return "update-remote"
	case ActionDeleteLocal:
		return "delete-local"
	case ActionDeleteRemote:
		return "delete-remote"
	default:
		return "unknown"
	}
}

// Classify decides what one pairing needs. Either side may be nil; a
// tombstoned remote task counts as absent except that it still triggers
// local deletion of its paired task.
//
// Two asymmetries are deliberate:
//   - Remote deletions win. A tombstoned or vanished remote task removes the
//     local copy regardless of how fresh the local copy is, so a task the
//     user removed remotely is never resurrected from a stale local cache.
//   - Local edits win ties. When timestamps are equal (or local is newer)
//     and content differs, the local state is pushed out, so an edit made in
//     the same round-trip window as a sync is never silently dropped.
func Classify(local *task.Task, remote *tasks.Task) Action {
	if local == nil {
		if remote != nil && !remote.Deleted {
			return ActionCreateLocal
		}
		return ActionNone
	}

	if local.RemoteTaskID == "" {
		if remote == nil {
			return ActionCreateRemote
		}
		return ActionNone
	}

	if remote == nil || remote.Deleted {
		return ActionDeleteLocal
	}

	if gtasks.UpdatedTime(remote).After(local.UpdatedAt) {
		if contentDiffers(local, remote) || notesDiffer(local, remote) {
			return ActionUpdateLocal
		}
		return ActionNone
	}

	if contentDiffers(local, remote) {
		return ActionUpdateRemote
	}

	return ActionNone
}

// IsConflict reports whether the pairing is a write conflict: both sides
// carry the exact same timestamp but different content. Conflicts are
// counted for visibility; the tie still resolves in the local task's favor.
func IsConflict(local *task.Task, remote *tasks.Task) bool {
	if local == nil || remote == nil || remote.Deleted {
		return false
	}
	if local.RemoteTaskID == "" || local.RemoteTaskID != remote.Id {
		return false
	}
	return gtasks.UpdatedTime(remote).Equal(local.UpdatedAt) && contentDiffers(local, remote)
}

// contentDiffers compares the fields both sides share.
func contentDiffers(local *task.Task, remote *tasks.Task) bool {
	if local.Name != remote.Title {
		return true
	}
	return local.IsComplete != (remote.Status == gtasks.StatusCompleted)
}

// notesDiffer reports whether the remote notes payload decodes to something
// other than the local task's metadata. Without this check a remote edit
// that only touched the notes field would never mirror in; with it, an
// already-mirrored payload decodes equal and classifies as no-op again.
func notesDiffer(local *task.Task, remote *tasks.Task) bool {
	d := task.DecodeNotes(remote.Notes)
	return d.EstimatedPomodoros != local.EstimatedPomodoros ||
		d.CompletedPomodoros != local.CompletedPomodoros ||
		d.Priority != local.Priority ||
		d.Notes != local.Notes
}
