package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lotfibennour/pomodoro-todo/internal/auth"
	"github.com/lotfibennour/pomodoro-todo/internal/config"
	"github.com/lotfibennour/pomodoro-todo/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pomosync",
	Short: "Pomodoro task list with two-way Google Tasks sync",
	Long: `pomosync keeps a local pomodoro task list and mirrors it to Google Tasks.

Tasks live in a local SQLite database and carry pomodoro estimates, completed
counts, and a priority. The sync engine reconciles both sides in a single
pass: remote edits flow in, local edits flow out, and remote deletions win.

Run 'pomosync connect' once to authorize access, then 'pomosync sync' for a
one-shot pass or 'pomosync daemon' to sync continuously in the background.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Task Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
	)
}

// mustLoadConfig loads the configuration or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// mustOpenStore opens the task database and initializes its schema, or exits.
func mustOpenStore(cfg *config.Config) *store.Store {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening task database: %v\n", err)
		os.Exit(1)
	}
	if err := st.InitSchema(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing task database: %v\n", err)
		os.Exit(1)
	}
	return st
}

// mustAuthManager builds the credential manager or exits with a setup hint.
func mustAuthManager(cfg *config.Config) *auth.Manager {
	mgr, err := auth.NewManager(cfg.ConfigDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading OAuth client: %v\n", err)
		fmt.Fprintf(os.Stderr, "Download an OAuth client secret from the Google API console\n")
		fmt.Fprintf(os.Stderr, "and save it as %s/%s\n", cfg.ConfigDir, auth.CredentialsFile)
		os.Exit(1)
	}
	return mgr
}
