// Package task provides the local task model shared by the store, the sync
// engine, and the CLI.
package task

import (
	"fmt"
	"time"
)

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a locally stored task.
//
// UpdatedAt is the conflict tie-break field: the store refreshes it on every
// mutation, and the sync engine compares it against the remote task's
// updated timestamp to decide which side wins.
type Task struct {
	// ID is the local identifier, assigned by the store on insert.
	ID int64 `json:"id"`

	Name               string   `json:"name"`
	EstimatedPomodoros int      `json:"estimatedPomodoros"`
	CompletedPomodoros int      `json:"completedPomodoros"`
	IsComplete         bool     `json:"isComplete"`
	Priority           Priority `json:"priority"`

	// RemoteTaskID is the remote service's identifier for this task.
	// Empty until the task has been pushed to the remote side; a task with
	// an empty RemoteTaskID is a pending remote create.
	RemoteTaskID string `json:"remoteTaskId,omitempty"`

	// Notes is the free-text portion of the remote notes payload,
	// mirrored from the remote side.
	Notes string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks that the task has valid field values.
func (t *Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.EstimatedPomodoros < 1 {
		return fmt.Errorf("estimated pomodoros must be at least 1 (got %d)", t.EstimatedPomodoros)
	}
	if t.CompletedPomodoros < 0 {
		return fmt.Errorf("completed pomodoros must not be negative (got %d)", t.CompletedPomodoros)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("priority must be low, medium, or high (got %q)", t.Priority)
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (t *Task) SetDefaults() {
	if t.EstimatedPomodoros == 0 {
		t.EstimatedPomodoros = 1
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now()
	}
}
