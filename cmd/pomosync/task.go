package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lotfibennour/pomodoro-todo/internal/task"
	"github.com/lotfibennour/pomodoro-todo/internal/ui"
)

var (
	addEstimate int
	addPriority string
	addNotes    string
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: "tasks",
	Short:   "Manage local tasks",
	Long: `Create, list, and update tasks in the local database.

Local changes are picked up by the next sync pass (the daemon triggers one
automatically a few seconds after the database changes).`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		st := mustOpenStore(cfg)
		defer st.Close()

		t := &task.Task{
			Name:               args[0],
			EstimatedPomodoros: addEstimate,
			Priority:           task.Priority(addPriority),
			Notes:              addNotes,
		}
		created, err := st.Insert(t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding task: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Added task %d: %s\n", ui.RenderPass("✓"), created.ID, created.Name)
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		st := mustOpenStore(cfg)
		defer st.Close()

		tasks, err := st.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing tasks: %v\n", err)
			os.Exit(1)
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks. Add one with 'pomosync task add'.")
			return
		}

		for _, t := range tasks {
			mark := " "
			if t.IsComplete {
				mark = ui.RenderPass("✓")
			}
			synced := ui.RenderMuted("local")
			if t.RemoteTaskID != "" {
				synced = ui.RenderMuted("synced")
			}
			fmt.Printf("[%s] %3d  %s  🍅 %d/%d  %s  %s\n",
				mark, t.ID, t.Name, t.CompletedPomodoros, t.EstimatedPomodoros,
				renderPriority(t.Priority), synced)
			if t.Notes != "" {
				fmt.Printf("         %s\n", ui.RenderMuted(t.Notes))
			}
		}
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task complete",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withTask(args[0], func(t *task.Task) {
			t.IsComplete = true
		}, "Completed task")
	},
}

var taskPomoCmd = &cobra.Command{
	Use:   "pomo <id>",
	Short: "Record a completed pomodoro",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withTask(args[0], func(t *task.Task) {
			t.CompletedPomodoros++
			if t.CompletedPomodoros >= t.EstimatedPomodoros {
				t.IsComplete = true
			}
		}, "Logged pomodoro for task")
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Long: `Delete a task from the local database.

If the task was synced, the next pass removes its remote counterpart too.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		st := mustOpenStore(cfg)
		defer st.Close()

		id := parseTaskID(args[0])
		if err := st.Delete(id); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting task: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Deleted task %d\n", ui.RenderPass("✓"), id)
	},
}

// withTask loads a task, applies mutate, and saves it back.
func withTask(rawID string, mutate func(*task.Task), verb string) {
	cfg := mustLoadConfig()
	st := mustOpenStore(cfg)
	defer st.Close()

	id := parseTaskID(rawID)
	t, err := st.Get(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading task: %v\n", err)
		os.Exit(1)
	}
	if t == nil {
		fmt.Fprintf(os.Stderr, "Error: task %d not found\n", id)
		os.Exit(1)
	}

	mutate(t)

	if err := st.Update(t); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving task: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s %s %d: %s\n", ui.RenderPass("✓"), verb, t.ID, t.Name)
}

func parseTaskID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid task id %q\n", raw)
		os.Exit(1)
	}
	return id
}

func renderPriority(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return ui.RenderFail("high")
	case task.PriorityLow:
		return ui.RenderMuted("low")
	default:
		return ui.RenderWarn("medium")
	}
}

func init() {
	taskAddCmd.Flags().IntVarP(&addEstimate, "estimate", "e", 1, "estimated pomodoros")
	taskAddCmd.Flags().StringVarP(&addPriority, "priority", "p", "medium", "priority (low, medium, high)")
	taskAddCmd.Flags().StringVarP(&addNotes, "notes", "n", "", "free-form notes")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskPomoCmd)
	taskCmd.AddCommand(taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}
