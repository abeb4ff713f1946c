package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lotfibennour/pomodoro-todo/internal/auth"
	"github.com/lotfibennour/pomodoro-todo/internal/config"
	"github.com/lotfibennour/pomodoro-todo/internal/gtasks"
	"github.com/lotfibennour/pomodoro-todo/internal/store"
	tasksync "github.com/lotfibennour/pomodoro-todo/internal/sync"
	"github.com/lotfibennour/pomodoro-todo/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Run one sync pass now",
	Long: `Run a single bidirectional sync pass against the remote task list.

The pass mirrors remote changes in, pushes local changes out, and applies
deletions on both sides. Remote deletions always win; when both sides changed
at the same instant the local copy wins.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		st := mustOpenStore(cfg)
		defer st.Close()

		mgr := mustAuthManager(cfg)
		if !mgr.Connected() {
			fmt.Fprintf(os.Stderr, "Error: not connected. Run 'pomosync connect' first.\n")
			os.Exit(1)
		}

		ctx := context.Background()
		engine, err := buildEngine(ctx, cfg, st, mgr, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Syncing...\n", ui.RenderAccent("🔄"))
		start := time.Now()

		stats, err := engine.RunSync(ctx)
		if errors.Is(err, gtasks.ErrAuth) {
			fmt.Printf("%s Token rejected, refreshing...\n", ui.RenderWarn("⚠"))
			if rerr := mgr.Refresh(ctx); rerr != nil {
				fmt.Fprintf(os.Stderr, "Error refreshing token: %v\n", rerr)
				fmt.Fprintf(os.Stderr, "Try 'pomosync disconnect' and 'pomosync connect' again.\n")
				os.Exit(1)
			}
			// The engine's client reads the token from disk per request,
			// so the refreshed token is already on the wire.
			stats, err = engine.RunSync(ctx)
		}

		var partial *tasksync.PartialError
		switch {
		case errors.As(err, &partial):
			fmt.Printf("%s Sync finished with skipped tasks in %v\n",
				ui.RenderWarn("⚠"), time.Since(start).Round(time.Millisecond))
			fmt.Printf("   %s\n", stats.String())
			fmt.Printf("   Skipped tasks are retried on the next pass\n")
		case err != nil:
			fmt.Fprintf(os.Stderr, "Error during sync: %v\n", err)
			os.Exit(1)
		default:
			fmt.Printf("%s Sync complete in %v\n",
				ui.RenderPass("✓"), time.Since(start).Round(time.Millisecond))
			fmt.Printf("   %s\n", stats.String())
		}
	},
}

// buildEngine wires the authenticated remote client into a sync engine.
func buildEngine(ctx context.Context, cfg *config.Config, st *store.Store,
	mgr *auth.Manager, logger *log.Logger) (*tasksync.Engine, error) {

	httpClient, err := mgr.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}
	client, err := gtasks.NewClient(ctx, httpClient, cfg.TaskList)
	if err != nil {
		return nil, err
	}
	return tasksync.New(st, client, logger), nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
