// Package sync implements the bidirectional reconciliation engine between
// the local task store and the remote task service.
//
// One call to RunSync performs one full pass:
//
//  1. Fetch both collections (concurrently).
//  2. Tombstone pass: propagate local deletions of synced tasks to the
//     remote side, before anything can resurrect their mirrors.
//  3. Pass A, remote to local: mirror remote creates, updates, and deletions
//     into the store.
//  4. Pass B, local to remote: push never-synced tasks out (persisting the
//     assigned remote id immediately) and push local edits over stale
//     remote copies.
//  5. Orphan pass: drop remote tasks no local task references, and
//     re-verify that no local task still points at a vanished remote id.
//
// Pass A always completes before Pass B begins, so a local task is never
// pushed against a remote id that Pass A was about to delete. Per-task
// failures are logged, counted, and skipped; a single bad task never aborts
// the pass.
package sync

import (
	"context"
	"fmt"
	"log"
	"os"

	tasks "google.golang.org/api/tasks/v1"

	"github.com/lotfibennour/pomodoro-todo/internal/gtasks"
	"github.com/lotfibennour/pomodoro-todo/internal/store"
	"github.com/lotfibennour/pomodoro-todo/internal/task"
)

// Engine drives sync passes against one store and one remote client.
type Engine struct {
	store  *store.Store
	remote gtasks.Client
	logger *log.Logger
}

// New creates an Engine.
//
// The store must be opened and have its schema initialized. If logger is
// nil, a default logger writing to stderr is used.
func New(st *store.Store, remote gtasks.Client, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Engine{
		store:  st,
		remote: remote,
		logger: logger,
	}
}

// RunSync performs one full synchronization pass and returns the aggregate
// counters.
//
// Fetch failures abort the pass and surface as-is (gtasks.ErrAuth lets the
// caller refresh credentials and retry; gtasks.ErrNetwork waits for the next
// trigger). Per-task action failures do not abort the pass; when any
// occurred, RunSync returns the stats together with a *PartialError.
func (e *Engine) RunSync(ctx context.Context) (Stats, error) {
	var stats Stats

	remoteList, locals, err := e.fetchBoth(ctx)
	if err != nil {
		return stats, err
	}

	e.logger.Printf("Starting pass: %d remote, %d local", len(remoteList), len(locals))

	// Pairing index and the set of live (non-tombstoned) remote tasks.
	localByRemoteID := make(map[string]*task.Task)
	for _, lt := range locals {
		if lt.RemoteTaskID != "" {
			localByRemoteID[lt.RemoteTaskID] = lt
		}
	}
	liveRemote := make(map[string]*tasks.Task)
	for _, rt := range remoteList {
		if rt.Id != "" && !rt.Deleted {
			liveRemote[rt.Id] = rt
		}
	}

	// Remote tasks that failed to mirror locally must not look like local
	// deletions later in the pass.
	unmirrored := make(map[string]bool)

	e.passTombstones(ctx, liveRemote, &stats)

	e.passRemoteToLocal(ctx, remoteList, locals, localByRemoteID, liveRemote, unmirrored, &stats)

	// Re-read: Pass A may have inserted, updated, or deleted rows.
	locals, err = e.store.ListContext(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to re-read local tasks: %w", err)
	}

	e.passLocalToRemote(ctx, locals, liveRemote, &stats)

	if err := e.passOrphans(ctx, liveRemote, unmirrored, &stats); err != nil {
		return stats, err
	}

	e.logger.Printf("Pass complete: %s", stats.String())

	if stats.Skipped > 0 {
		return stats, &PartialError{Failed: stats.Skipped}
	}
	return stats, nil
}

// fetchBoth retrieves the remote and local collections concurrently.
// The local store is fast, but the remote fetch is a network round trip;
// overlapping them keeps pass latency close to the remote latency alone.
func (e *Engine) fetchBoth(ctx context.Context) ([]*tasks.Task, []*task.Task, error) {
	type remoteResult struct {
		list []*tasks.Task
		err  error
	}
	remoteCh := make(chan remoteResult, 1)
	go func() {
		list, err := e.remote.List(ctx)
		remoteCh <- remoteResult{list: list, err: err}
	}()

	locals, err := e.store.ListContext(ctx)
	if err != nil {
		<-remoteCh
		return nil, nil, fmt.Errorf("failed to read local tasks: %w", err)
	}

	r := <-remoteCh
	if r.err != nil {
		return nil, nil, fmt.Errorf("failed to fetch remote tasks: %w", r.err)
	}

	return r.list, locals, nil
}

// passTombstones propagates local deletions of synced tasks out. It runs
// before Pass A so a deleted task's still-live remote copy cannot be
// mirrored straight back in. A tombstone survives until its remote delete
// succeeds; one pointing at an already-dead remote task is simply cleared.
func (e *Engine) passTombstones(ctx context.Context, liveRemote map[string]*tasks.Task, stats *Stats) {
	tombs, err := e.store.TombstonesContext(ctx)
	if err != nil {
		e.logger.Printf("WARNING: failed to read tombstones: %v", err)
		return
	}

	for _, id := range tombs {
		if rt, ok := liveRemote[id]; ok {
			if err := e.remote.Delete(ctx, id); err != nil {
				e.logger.Printf("WARNING: failed to delete remote task %s (%q): %v", id, rt.Title, err)
				stats.Skipped++
				continue
			}
			delete(liveRemote, id)
			e.logger.Printf("Deleted remote task %q (removed locally)", rt.Title)
			stats.Deleted++
		}
		if err := e.store.ClearTombstoneContext(ctx, id); err != nil {
			e.logger.Printf("WARNING: failed to clear tombstone %s: %v", id, err)
			stats.Skipped++
		}
	}
}

// passRemoteToLocal reconciles remote truth into the local store: creates
// and updates mirrored in, remote deletions applied.
func (e *Engine) passRemoteToLocal(ctx context.Context, remoteList []*tasks.Task,
	locals []*task.Task, localByRemoteID map[string]*task.Task,
	liveRemote map[string]*tasks.Task, unmirrored map[string]bool, stats *Stats) {

	for _, rt := range remoteList {
		// Tombstoned remotely, or already deleted by the tombstone pass.
		if liveRemote[rt.Id] == nil {
			continue
		}

		local := localByRemoteID[rt.Id]
		if IsConflict(local, rt) {
			e.logger.Printf("Conflict on %q: equal timestamps, differing content (local wins)", rt.Title)
			stats.Conflicts++
		}

		switch Classify(local, rt) {
		case ActionCreateLocal:
			if err := e.createLocal(ctx, rt); err != nil {
				e.logger.Printf("WARNING: failed to create local task from %q: %v", rt.Title, err)
				unmirrored[rt.Id] = true
				stats.Skipped++
				continue
			}
			stats.Created++

		case ActionUpdateLocal:
			if err := e.updateLocal(ctx, local, rt); err != nil {
				e.logger.Printf("WARNING: failed to update local task %d from %q: %v", local.ID, rt.Title, err)
				stats.Skipped++
				continue
			}
			stats.Updated++
		}
	}

	// Remote deletions win: a paired local task whose remote counterpart is
	// tombstoned or gone entirely is removed, whatever its local timestamp.
	for _, lt := range locals {
		if lt.RemoteTaskID == "" {
			continue
		}
		if Classify(lt, liveRemote[lt.RemoteTaskID]) != ActionDeleteLocal {
			continue
		}
		if err := e.store.DeleteContext(ctx, lt.ID); err != nil {
			e.logger.Printf("WARNING: failed to delete local task %d (%q): %v", lt.ID, lt.Name, err)
			stats.Skipped++
			continue
		}
		e.logger.Printf("Deleted local task %q (removed remotely)", lt.Name)
		stats.Deleted++
	}
}

// passLocalToRemote pushes local state out: never-synced tasks are created
// remotely (and their new remote id persisted immediately), and local edits
// overwrite stale remote copies. Ties go to the local side.
func (e *Engine) passLocalToRemote(ctx context.Context, locals []*task.Task,
	liveRemote map[string]*tasks.Task, stats *Stats) {

	for _, lt := range locals {
		var remote *tasks.Task
		if lt.RemoteTaskID != "" {
			remote = liveRemote[lt.RemoteTaskID]
		}

		switch Classify(lt, remote) {
		case ActionCreateRemote:
			created, err := e.remote.Insert(ctx, remoteFromLocal(lt))
			if err != nil {
				e.logger.Printf("WARNING: failed to create remote task for %q: %v", lt.Name, err)
				stats.Skipped++
				continue
			}
			// Persist the pairing immediately. If that fails the remote
			// copy is unpaired, and the next pass would mirror it back in
			// alongside the still-unpaired local task; roll the create
			// back so the task is pushed again cleanly next pass.
			if err := e.store.SetRemoteIDContext(ctx, lt.ID, created.Id); err != nil {
				e.logger.Printf("WARNING: failed to record remote id for %q: %v", lt.Name, err)
				if derr := e.remote.Delete(ctx, created.Id); derr != nil {
					e.logger.Printf("WARNING: failed to roll back remote task %s: %v", created.Id, derr)
				}
				stats.Skipped++
				continue
			}
			liveRemote[created.Id] = created
			e.logger.Printf("Created remote task %q (%s)", lt.Name, created.Id)
			stats.Created++

		case ActionUpdateRemote:
			if err := e.remote.Patch(ctx, lt.RemoteTaskID, remoteFromLocal(lt)); err != nil {
				e.logger.Printf("WARNING: failed to update remote task %s (%q): %v", lt.RemoteTaskID, lt.Name, err)
				stats.Skipped++
				continue
			}
			e.logger.Printf("Updated remote task %q", lt.Name)
			stats.Updated++
		}
	}
}

// passOrphans re-verifies both directions after Pass B shifted state.
// Live remote tasks that no local task references are deleted remotely
// (local deletion propagates out), and local tasks still pointing at a
// vanished remote id are dropped.
func (e *Engine) passOrphans(ctx context.Context, liveRemote map[string]*tasks.Task,
	unmirrored map[string]bool, stats *Stats) error {
	locals, err := e.store.ListContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-read local tasks: %w", err)
	}

	referenced := make(map[string]bool)
	for _, lt := range locals {
		if lt.RemoteTaskID == "" {
			continue
		}
		referenced[lt.RemoteTaskID] = true

		if liveRemote[lt.RemoteTaskID] != nil {
			continue
		}
		if err := e.store.DeleteContext(ctx, lt.ID); err != nil {
			e.logger.Printf("WARNING: failed to delete orphaned local task %d: %v", lt.ID, err)
			stats.Skipped++
			continue
		}
		e.logger.Printf("Deleted orphaned local task %q", lt.Name)
		stats.Deleted++
	}

	for id, rt := range liveRemote {
		if referenced[id] || unmirrored[id] {
			continue
		}
		if err := e.remote.Delete(ctx, id); err != nil {
			e.logger.Printf("WARNING: failed to delete unreferenced remote task %s (%q): %v", id, rt.Title, err)
			stats.Skipped++
			continue
		}
		e.logger.Printf("Deleted remote task %q (removed locally)", rt.Title)
		stats.Deleted++
	}

	return nil
}

// createLocal mirrors a remote task into the store, decoding the pomodoro
// and priority metadata from the notes payload.
func (e *Engine) createLocal(ctx context.Context, rt *tasks.Task) error {
	fields := task.DecodeNotes(rt.Notes)
	lt := &task.Task{
		Name:               rt.Title,
		EstimatedPomodoros: fields.EstimatedPomodoros,
		CompletedPomodoros: fields.CompletedPomodoros,
		Priority:           fields.Priority,
		IsComplete:         rt.Status == gtasks.StatusCompleted,
		RemoteTaskID:       rt.Id,
		Notes:              fields.Notes,
	}
	if _, err := e.store.InsertContext(ctx, lt); err != nil {
		return err
	}
	e.logger.Printf("Created local task %q from remote %s", rt.Title, rt.Id)
	return nil
}

// updateLocal applies a newer remote state onto the paired local task.
func (e *Engine) updateLocal(ctx context.Context, local *task.Task, rt *tasks.Task) error {
	fields := task.DecodeNotes(rt.Notes)
	local.Name = rt.Title
	local.IsComplete = rt.Status == gtasks.StatusCompleted
	local.EstimatedPomodoros = fields.EstimatedPomodoros
	local.CompletedPomodoros = fields.CompletedPomodoros
	local.Priority = fields.Priority
	local.Notes = fields.Notes
	if err := e.store.UpdateContext(ctx, local); err != nil {
		return err
	}
	e.logger.Printf("Updated local task %q from remote", rt.Title)
	return nil
}

// remoteFromLocal builds the remote representation of a local task.
func remoteFromLocal(lt *task.Task) *tasks.Task {
	status := gtasks.StatusNeedsAction
	if lt.IsComplete {
		status = gtasks.StatusCompleted
	}
	return &tasks.Task{
		Title:  lt.Name,
		Status: status,
		Notes:  task.EncodeNotes(lt),
	}
}
