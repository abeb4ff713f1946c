package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/lotfibennour/pomodoro-todo/internal/ui"
)

var connectCmd = &cobra.Command{
	Use:     "connect",
	GroupID: "sync",
	Short:   "Authorize access to the remote task list",
	Long: `Authorize pomosync to read and write your Google Tasks.

Visit the printed URL, approve access, and paste the authorization code back
here. The token is stored locally and refreshed automatically by the daemon.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		mgr := mustAuthManager(cfg)

		if mgr.Connected() {
			fmt.Printf("%s Already connected. Run 'pomosync disconnect' to start over.\n",
				ui.RenderPass("✓"))
			return
		}

		fmt.Printf("%s Visit this URL to authorize access:\n\n%s\n\n",
			ui.RenderAccent("🔑"), mgr.AuthURL())

		var code string
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Authorization code").
				Description("Paste the code shown after approving access").
				Value(&code),
		))
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintf(os.Stderr, "Aborted\n")
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error reading authorization code: %v\n", err)
			os.Exit(1)
		}

		code = strings.TrimSpace(code)
		if code == "" {
			fmt.Fprintf(os.Stderr, "Error: empty authorization code\n")
			os.Exit(1)
		}

		if err := mgr.Authorize(context.Background(), code); err != nil {
			fmt.Fprintf(os.Stderr, "Error authorizing: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Connected. Run 'pomosync sync' to sync now.\n", ui.RenderPass("✓"))
	},
}

var disconnectCmd = &cobra.Command{
	Use:     "disconnect",
	GroupID: "sync",
	Short:   "Remove the stored credentials",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		mgr := mustAuthManager(cfg)

		if err := mgr.Disconnect(); err != nil {
			fmt.Fprintf(os.Stderr, "Error disconnecting: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Disconnected. Local tasks are untouched.\n", ui.RenderPass("✓"))
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
}
