package task

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The remote task schema has no fields for pomodoro counts or priority, so
// they ride along in the free-text notes field using a fixed layout:
//
//	Pomodoros: {completed}/{estimated} | Priority: {priority} | Notes: {text}
//
// The Notes segment is only present when the task has free-text notes.

var (
	pomodorosRe = regexp.MustCompile(`Pomodoros:\s*(\d+)/(\d+)`)
	priorityRe  = regexp.MustCompile(`Priority:\s*(\w+)`)
	freeTextRe  = regexp.MustCompile(`Notes:\s*(.+)$`)
)

// NoteFields holds the metadata decoded from a remote notes payload.
type NoteFields struct {
	EstimatedPomodoros int
	CompletedPomodoros int
	Priority           Priority
	Notes              string
}

// EncodeNotes renders the task's pomodoro counts, priority, and free-text
// notes into the remote notes format. The output is deterministic.
func EncodeNotes(t *Task) string {
	parts := []string{
		fmt.Sprintf("Pomodoros: %d/%d", t.CompletedPomodoros, t.EstimatedPomodoros),
		fmt.Sprintf("Priority: %s", t.Priority),
	}
	if t.Notes != "" {
		parts = append(parts, fmt.Sprintf("Notes: %s", t.Notes))
	}
	return strings.Join(parts, " | ")
}

// DecodeNotes extracts pomodoro counts, priority, and free-text notes from a
// remote notes payload. Notes not produced by this system decode to defaults
// (1 estimated, 0 completed, medium priority). DecodeNotes never fails; it
// always returns a complete record.
func DecodeNotes(notes string) NoteFields {
	fields := NoteFields{
		EstimatedPomodoros: 1,
		CompletedPomodoros: 0,
		Priority:           PriorityMedium,
	}

	if m := pomodorosRe.FindStringSubmatch(notes); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			fields.CompletedPomodoros = n
		}
		if n, err := strconv.Atoi(m[2]); err == nil && n >= 1 {
			fields.EstimatedPomodoros = n
		}
	}

	if m := priorityRe.FindStringSubmatch(notes); m != nil {
		if p := Priority(strings.ToLower(m[1])); p.Valid() {
			fields.Priority = p
		}
	}

	if m := freeTextRe.FindStringSubmatch(notes); m != nil {
		fields.Notes = strings.TrimSpace(m[1])
	}

	return fields
}
