// Package store provides the local task store backed by embedded SQLite.
//
// The database runs in embedded mode with WAL enabled so the CLI and the
// sync daemon can read concurrently. The store owns the updated_at column:
// it is refreshed on every insert and update, because the sync engine relies
// on it as the conflict tie-break timestamp.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/lotfibennour/pomodoro-todo/internal/task"
)

// Store wraps the SQLite connection holding local tasks.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a database connection at the specified path.
//
// If the database doesn't exist, it is created; call InitSchema before first
// use. The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		conn: conn,
		path: path,
	}

	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return s, nil
}

// Path returns the on-disk location of the database file.
func (s *Store) Path() string {
	return s.path
}

// RawDB returns the underlying sql.DB connection.
// This is useful for integrating with other libraries that expect *sql.DB.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close closes the database connection after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the tasks table if it doesn't exist.
// Idempotent - safe to call multiple times.
func (s *Store) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (s *Store) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		estimated_pomodoros INTEGER NOT NULL DEFAULT 1,
		completed_pomodoros INTEGER NOT NULL DEFAULT 0,
		is_complete INTEGER NOT NULL DEFAULT 0,
		priority TEXT NOT NULL DEFAULT 'medium',
		remote_task_id TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- At most one local task may reference a given remote id.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_remote_id
	    ON tasks(remote_task_id) WHERE remote_task_id IS NOT NULL;

	CREATE INDEX IF NOT EXISTS idx_tasks_complete ON tasks(is_complete);

	-- Remote ids of synced tasks deleted locally, kept until the deletion
	-- has been propagated to the remote side.
	CREATE TABLE IF NOT EXISTS remote_tombstones (
		remote_task_id TEXT PRIMARY KEY,
		deleted_at TEXT NOT NULL
	);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Insert adds a new task and returns it with the assigned local id.
// CreatedAt and UpdatedAt are set by the store.
func (s *Store) Insert(t *task.Task) (*task.Task, error) {
	return s.InsertContext(context.Background(), t)
}

// InsertContext adds a new task with context support.
func (s *Store) InsertContext(ctx context.Context, t *task.Task) (*task.Task, error) {
	t.SetDefaults()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	query := `
	INSERT INTO tasks (
		name, estimated_pomodoros, completed_pomodoros, is_complete,
		priority, remote_task_id, notes, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.conn.ExecContext(ctx, query,
		t.Name,
		t.EstimatedPomodoros,
		t.CompletedPomodoros,
		boolToInt(t.IsComplete),
		string(t.Priority),
		stringToNull(t.RemoteTaskID),
		stringToNull(t.Notes),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted id: %w", err)
	}
	t.ID = id

	return t, nil
}

// Update rewrites all mutable fields of the task and refreshes updated_at.
func (s *Store) Update(t *task.Task) error {
	return s.UpdateContext(context.Background(), t)
}

// UpdateContext rewrites the task with context support.
func (s *Store) UpdateContext(ctx context.Context, t *task.Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	now := time.Now()
	t.UpdatedAt = now

	query := `
	UPDATE tasks SET
		name = ?,
		estimated_pomodoros = ?,
		completed_pomodoros = ?,
		is_complete = ?,
		priority = ?,
		remote_task_id = ?,
		notes = ?,
		updated_at = ?
	WHERE id = ?
	`

	res, err := s.conn.ExecContext(ctx, query,
		t.Name,
		t.EstimatedPomodoros,
		t.CompletedPomodoros,
		boolToInt(t.IsComplete),
		string(t.Priority),
		stringToNull(t.RemoteTaskID),
		stringToNull(t.Notes),
		now.Format(time.RFC3339Nano),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", t.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d not found", t.ID)
	}

	return nil
}

// SetRemoteID records the remote identifier assigned to a local task.
//
// This deliberately does not touch updated_at: pairing a task with its
// remote counterpart is bookkeeping, not a content change, and bumping the
// timestamp here would make the task look newer than the remote copy.
func (s *Store) SetRemoteID(id int64, remoteID string) error {
	return s.SetRemoteIDContext(context.Background(), id, remoteID)
}

// SetRemoteIDContext records the remote identifier with context support.
func (s *Store) SetRemoteIDContext(ctx context.Context, id int64, remoteID string) error {
	query := `UPDATE tasks SET remote_task_id = ? WHERE id = ?`
	if _, err := s.conn.ExecContext(ctx, query, stringToNull(remoteID), id); err != nil {
		return fmt.Errorf("failed to set remote id on task %d: %w", id, err)
	}
	return nil
}

// Delete removes a task. Returns nil if the task doesn't exist (idempotent).
func (s *Store) Delete(id int64) error {
	return s.DeleteContext(context.Background(), id)
}

// DeleteContext removes a task with context support.
//
// Deleting a synced task leaves a tombstone carrying its remote id, so the
// next sync pass deletes the remote counterpart instead of resurrecting the
// local copy from it.
func (s *Store) DeleteContext(ctx context.Context, id int64) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete of task %d: %w", id, err)
	}
	defer tx.Rollback()

	var remoteID sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT remote_task_id FROM tasks WHERE id = ?`, id).Scan(&remoteID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read task %d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}

	if remoteID.Valid && remoteID.String != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO remote_tombstones (remote_task_id, deleted_at) VALUES (?, ?)`,
			remoteID.String, time.Now().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to record tombstone for task %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of task %d: %w", id, err)
	}
	return nil
}

// Tombstones returns the remote ids of locally deleted synced tasks whose
// remote deletion is still pending.
func (s *Store) Tombstones() ([]string, error) {
	return s.TombstonesContext(context.Background())
}

// TombstonesContext returns pending tombstones with context support.
func (s *Store) TombstonesContext(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT remote_task_id FROM remote_tombstones ORDER BY deleted_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tombstones: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tombstone: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tombstones: %w", err)
	}
	return ids, nil
}

// ClearTombstone removes a tombstone once its deletion has been propagated.
func (s *Store) ClearTombstone(remoteID string) error {
	return s.ClearTombstoneContext(context.Background(), remoteID)
}

// ClearTombstoneContext removes a tombstone with context support.
func (s *Store) ClearTombstoneContext(ctx context.Context, remoteID string) error {
	if _, err := s.conn.ExecContext(ctx,
		`DELETE FROM remote_tombstones WHERE remote_task_id = ?`, remoteID); err != nil {
		return fmt.Errorf("failed to clear tombstone %s: %w", remoteID, err)
	}
	return nil
}

// Get retrieves a single task by local id.
// Returns (nil, nil) when the task doesn't exist.
func (s *Store) Get(id int64) (*task.Task, error) {
	return s.GetContext(context.Background(), id)
}

// GetContext retrieves a single task with context support.
func (s *Store) GetContext(ctx context.Context, id int64) (*task.Task, error) {
	row := s.conn.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// GetByRemoteID retrieves the task paired with the given remote id.
// Returns (nil, nil) when no task references it.
func (s *Store) GetByRemoteID(remoteID string) (*task.Task, error) {
	return s.GetByRemoteIDContext(context.Background(), remoteID)
}

// GetByRemoteIDContext retrieves the paired task with context support.
func (s *Store) GetByRemoteIDContext(ctx context.Context, remoteID string) (*task.Task, error) {
	row := s.conn.QueryRowContext(ctx, selectColumns+` WHERE remote_task_id = ?`, remoteID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// List retrieves all tasks ordered by creation time.
func (s *Store) List() ([]*task.Task, error) {
	return s.ListContext(context.Background())
}

// ListContext retrieves all tasks with context support.
func (s *Store) ListContext(ctx context.Context) ([]*task.Task, error) {
	rows, err := s.conn.QueryContext(ctx, selectColumns+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Count returns the total number of tasks.
func (s *Store) Count() (int, error) {
	return s.CountContext(context.Background())
}

// CountContext returns the total number of tasks with context support.
func (s *Store) CountContext(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

const selectColumns = `
SELECT id, name, estimated_pomodoros, completed_pomodoros, is_complete,
       priority, remote_task_id, notes, created_at, updated_at
FROM tasks`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*task.Task, error) {
	var t task.Task
	var isComplete int
	var priority string
	var remoteID, notes sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.EstimatedPomodoros,
		&t.CompletedPomodoros,
		&isComplete,
		&priority,
		&remoteID,
		&notes,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	t.IsComplete = isComplete != 0
	t.Priority = task.Priority(priority)
	if remoteID.Valid {
		t.RemoteTaskID = remoteID.String
	}
	if notes.Valid {
		t.Notes = notes.String
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		t.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		t.UpdatedAt = ts
	}

	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
