package sync

import "fmt"

// Stats aggregates the outcome of one full sync pass across both directions.
type Stats struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Conflicts int `json:"conflicts"`

	// Skipped counts per-task actions that failed and were left for the
	// next pass. A non-zero value surfaces as a PartialError.
	Skipped int `json:"skipped,omitempty"`
}

// IsZero reports whether the pass changed nothing.
func (s Stats) IsZero() bool {
	return s == Stats{}
}

// String renders the counters for log lines and CLI output.
func (s Stats) String() string {
	out := fmt.Sprintf("created=%d updated=%d deleted=%d conflicts=%d",
		s.Created, s.Updated, s.Deleted, s.Conflicts)
	if s.Skipped > 0 {
		out += fmt.Sprintf(" skipped=%d", s.Skipped)
	}
	return out
}

// PartialError reports that a sync pass completed but some per-task actions
// failed. The returned Stats still count everything that succeeded; the
// failed tasks are retried naturally on the next pass.
type PartialError struct {
	Failed int
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("sync completed with %d failed task action(s)", e.Failed)
}
