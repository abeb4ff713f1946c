package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lotfibennour/pomodoro-todo/internal/config"
	"github.com/lotfibennour/pomodoro-todo/internal/daemon"
	"github.com/lotfibennour/pomodoro-todo/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Run the sync daemon (foreground)",
	Long: `Run the background sync scheduler in foreground mode.

The daemon will:
  1. Watch the task database for local changes
  2. Sync a few seconds after changes settle
  3. Sync periodically so remote edits arrive on their own
  4. Refresh the OAuth token before it goes stale

Logs rotate automatically in the data directory. Use a process manager to
keep the daemon running across logins.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		st := mustOpenStore(cfg)
		defer st.Close()

		mgr := mustAuthManager(cfg)
		if !mgr.Connected() {
			fmt.Fprintf(os.Stderr, "Error: not connected. Run 'pomosync connect' first.\n")
			os.Exit(1)
		}

		logger := log.New(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogPath(),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}), "[pomosync] ", log.LstdFlags)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, err := buildEngine(ctx, cfg, st, mgr, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		dcfg := schedulerConfig(cfg, logger)
		sched, err := daemon.NewWithConfig(engine, mgr, cfg.DBPath(), dcfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating scheduler: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Starting sync daemon...\n", ui.RenderAccent("🚀"))
		fmt.Printf("   Database: %s\n", cfg.DBPath())
		fmt.Printf("   Log: %s\n", cfg.LogPath())
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		if err := sched.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

// schedulerConfig applies the config file's overrides on top of the
// scheduler defaults. Zero values keep the defaults.
func schedulerConfig(cfg *config.Config, logger *log.Logger) *daemon.Config {
	dcfg := daemon.DefaultConfig()
	dcfg.Logger = logger

	if cfg.Daemon.Cooldown > 0 {
		dcfg.Cooldown = cfg.Daemon.Cooldown
	}
	if cfg.Daemon.DebounceInterval > 0 {
		dcfg.DebounceInterval = cfg.Daemon.DebounceInterval
	}
	if cfg.Daemon.AutoSyncInterval > 0 {
		dcfg.AutoSyncInterval = cfg.Daemon.AutoSyncInterval
	}
	if cfg.Daemon.PeriodicInterval > 0 {
		dcfg.PeriodicInterval = cfg.Daemon.PeriodicInterval
	}
	if cfg.Daemon.TokenMaxAge > 0 {
		dcfg.TokenMaxAge = cfg.Daemon.TokenMaxAge
	}
	if cfg.Daemon.SyncTimeout > 0 {
		dcfg.SyncTimeout = cfg.Daemon.SyncTimeout
	}
	return dcfg
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
