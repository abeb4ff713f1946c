package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lotfibennour/pomodoro-todo/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show connection and database status",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		fmt.Printf("\n%s pomosync status\n\n", ui.RenderAccent("📊"))

		mgr := mustAuthManager(cfg)
		if mgr.Connected() {
			fmt.Printf("Account: %s connected\n", ui.RenderPass("✓"))
		} else {
			fmt.Printf("Account: %s not connected (run 'pomosync connect')\n", ui.RenderWarn("⚠"))
		}

		info, err := os.Stat(cfg.DBPath())
		if os.IsNotExist(err) {
			fmt.Printf("Database: not created yet\n\n")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking database: %v\n", err)
			os.Exit(1)
		}

		st := mustOpenStore(cfg)
		defer st.Close()

		tasks, err := st.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading tasks: %v\n", err)
			os.Exit(1)
		}
		synced, open := 0, 0
		for _, t := range tasks {
			if t.RemoteTaskID != "" {
				synced++
			}
			if !t.IsComplete {
				open++
			}
		}

		size := info.Size()
		sizeStr := fmt.Sprintf("%d bytes", size)
		if size > 1024*1024 {
			sizeStr = fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
		} else if size > 1024 {
			sizeStr = fmt.Sprintf("%.1f KB", float64(size)/1024)
		}

		fmt.Printf("Database: %s\n", cfg.DBPath())
		fmt.Printf("Size: %s\n", sizeStr)
		fmt.Printf("Tasks: %d (%d open, %d synced)\n", len(tasks), open, synced)
		fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
