package task

import "testing"

func TestEncodeNotes(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want string
	}{
		{
			name: "without free text",
			task: Task{CompletedPomodoros: 2, EstimatedPomodoros: 4, Priority: PriorityHigh},
			want: "Pomodoros: 2/4 | Priority: high",
		},
		{
			name: "with free text",
			task: Task{CompletedPomodoros: 0, EstimatedPomodoros: 1, Priority: PriorityMedium, Notes: "buy milk"},
			want: "Pomodoros: 0/1 | Priority: medium | Notes: buy milk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeNotes(&tt.task); got != tt.want {
				t.Errorf("EncodeNotes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeNotes_RoundTrip(t *testing.T) {
	for _, prio := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		for _, counts := range [][2]int{{0, 1}, {3, 5}, {12, 12}} {
			task := Task{
				CompletedPomodoros: counts[0],
				EstimatedPomodoros: counts[1],
				Priority:           prio,
				Notes:              "some context",
			}
			got := DecodeNotes(EncodeNotes(&task))
			if got.CompletedPomodoros != counts[0] {
				t.Errorf("completed = %d, want %d", got.CompletedPomodoros, counts[0])
			}
			if got.EstimatedPomodoros != counts[1] {
				t.Errorf("estimated = %d, want %d", got.EstimatedPomodoros, counts[1])
			}
			if got.Priority != prio {
				t.Errorf("priority = %q, want %q", got.Priority, prio)
			}
			if got.Notes != "some context" {
				t.Errorf("notes = %q, want %q", got.Notes, "some context")
			}
		}
	}
}

func TestDecodeNotes_ForeignInput(t *testing.T) {
	tests := []struct {
		name  string
		notes string
		want  NoteFields
	}{
		{
			name:  "empty",
			notes: "",
			want:  NoteFields{EstimatedPomodoros: 1, CompletedPomodoros: 0, Priority: PriorityMedium},
		},
		{
			name:  "plain text from another client",
			notes: "remember to call the dentist",
			want:  NoteFields{EstimatedPomodoros: 1, CompletedPomodoros: 0, Priority: PriorityMedium},
		},
		{
			name:  "unknown priority falls back to medium",
			notes: "Pomodoros: 1/2 | Priority: urgent",
			want:  NoteFields{EstimatedPomodoros: 2, CompletedPomodoros: 1, Priority: PriorityMedium},
		},
		{
			name:  "malformed pomodoro segment keeps defaults",
			notes: "Pomodoros: x/y | Priority: low",
			want:  NoteFields{EstimatedPomodoros: 1, CompletedPomodoros: 0, Priority: PriorityLow},
		},
		{
			name:  "mixed case priority",
			notes: "Priority: HIGH",
			want:  NoteFields{EstimatedPomodoros: 1, CompletedPomodoros: 0, Priority: PriorityHigh},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeNotes(tt.notes)
			if got != tt.want {
				t.Errorf("DecodeNotes(%q) = %+v, want %+v", tt.notes, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{
			name: "valid task",
			task: Task{Name: "Write report", EstimatedPomodoros: 2, Priority: PriorityMedium},
		},
		{
			name:    "empty name",
			task:    Task{EstimatedPomodoros: 1, Priority: PriorityLow},
			wantErr: true,
		},
		{
			name:    "zero estimate",
			task:    Task{Name: "x", Priority: PriorityLow},
			wantErr: true,
		},
		{
			name:    "negative completed",
			task:    Task{Name: "x", EstimatedPomodoros: 1, CompletedPomodoros: -1, Priority: PriorityLow},
			wantErr: true,
		},
		{
			name:    "bad priority",
			task:    Task{Name: "x", EstimatedPomodoros: 1, Priority: "urgent"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.task.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	var tk Task
	tk.SetDefaults()

	if tk.EstimatedPomodoros != 1 {
		t.Errorf("estimated = %d, want 1", tk.EstimatedPomodoros)
	}
	if tk.Priority != PriorityMedium {
		t.Errorf("priority = %q, want medium", tk.Priority)
	}
	if tk.CreatedAt.IsZero() || tk.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}
