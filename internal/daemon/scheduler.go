// Package daemon runs the background sync scheduler.
//
// The scheduler:
// 1. Watches the task database file for local mutations
// 2. Debounces bursts of changes into one sync pass
// 3. Runs periodic passes so remote-only changes are picked up
// 4. Refreshes aging credentials before they expire
// 5. Handles graceful shutdown
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lotfibennour/pomodoro-todo/internal/gtasks"
	tasksync "github.com/lotfibennour/pomodoro-todo/internal/sync"
)

// Syncer runs one full sync pass.
type Syncer interface {
	RunSync(ctx context.Context) (tasksync.Stats, error)
}

// Credentials lets the scheduler keep the OAuth token fresh.
type Credentials interface {
	// Stale reports whether the token is older than maxAge.
	Stale(maxAge time.Duration) bool
	// Refresh obtains a new access token.
	Refresh(ctx context.Context) error
}

// Config holds configuration for the scheduler.
type Config struct {
	// Cooldown is the minimum gap between two sync passes. Triggers that
	// arrive inside the window are skipped; a pending change is picked up
	// by a later tick instead.
	Cooldown time.Duration

	// DebounceInterval is how long to wait after the last local change
	// before syncing. This batches rapid edits together.
	DebounceInterval time.Duration

	// AutoSyncInterval is how often to check for pending local changes
	// that the debounce path could not flush (for example while the
	// cooldown window was open).
	AutoSyncInterval time.Duration

	// PeriodicInterval is how often to sync regardless of local activity,
	// so remote-only changes are mirrored in.
	PeriodicInterval time.Duration

	// TokenMaxAge is the token age past which the scheduler refreshes
	// credentials before syncing, instead of waiting for a 401.
	TokenMaxAge time.Duration

	// SyncTimeout bounds one full pass.
	SyncTimeout time.Duration

	// SuccessResetAfter and ErrorResetAfter control how long the success
	// and error states stay visible before the status returns to idle.
	SuccessResetAfter time.Duration
	ErrorResetAfter   time.Duration

	// Logger for scheduler activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cooldown:          30 * time.Second,
		DebounceInterval:  8 * time.Second,
		AutoSyncInterval:  2 * time.Minute,
		PeriodicInterval:  10 * time.Minute,
		TokenMaxAge:       50 * time.Minute,
		SyncTimeout:       30 * time.Second,
		SuccessResetAfter: 3 * time.Second,
		ErrorResetAfter:   5 * time.Second,
		Logger:            log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// State is the scheduler's externally visible sync state.
type State int

const (
	// StateIdle means no pass is running and none recently finished.
	StateIdle State = iota
	// StateSyncing means a pass is in flight.
	StateSyncing
	// StateSuccess means the last pass finished cleanly.
	StateSuccess
	// StateError means the last pass failed or was partial.
	StateError
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the scheduler's sync state.
type Status struct {
	State     State          `json:"state"`
	LastSync  time.Time      `json:"lastSync,omitempty"`
	LastStats tasksync.Stats `json:"lastStats"`
	LastError string         `json:"lastError,omitempty"`

	// CanSync reports whether a trigger arriving now would run: no pass
	// in flight and the cooldown window has elapsed.
	CanSync bool `json:"canSync"`
}

// Scheduler watches the database file and drives sync passes.
type Scheduler struct {
	syncer Syncer
	creds  Credentials
	dbPath string
	config *Config

	watcher *fsnotify.Watcher

	mu         sync.Mutex
	inProgress bool
	lastSync   time.Time
	lastChange time.Time // zero when nothing is pending
	status     Status
	statusSeq  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler with default configuration.
//
// creds may be nil; token freshness handling is then skipped entirely.
// Use Start() to begin watching and syncing.
func New(syncer Syncer, creds Credentials, dbPath string) (*Scheduler, error) {
	return NewWithConfig(syncer, creds, dbPath, DefaultConfig())
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(syncer Syncer, creds Credentials, dbPath string, config *Config) (*Scheduler, error) {
	if syncer == nil {
		return nil, fmt.Errorf("syncer cannot be nil")
	}
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		syncer:  syncer,
		creds:   creds,
		dbPath:  dbPath,
		config:  config,
		watcher: watcher,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins the scheduler's operation.
//
// The scheduler will:
// 1. Perform an initial sync pass
// 2. Watch the database file for local mutations
// 3. Sync after a debounced quiet period following a change
// 4. Sync periodically so remote changes arrive without local activity
//
// This blocks until ctx is cancelled or an error occurs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.config.Logger.Println("Starting scheduler")

	// Watch the directory, not the file: sqlite swaps WAL sidecar files in
	// and out, and watching the directory survives that.
	dir := filepath.Dir(s.dbPath)
	if err := s.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch database directory %s: %w", dir, err)
	}
	s.config.Logger.Printf("Watching: %s", s.dbPath)

	// The startup pass runs unconditionally; the cooldown only spaces out
	// passes after it.
	s.runOnce(true)

	s.wg.Add(3)
	go s.watchFileEvents()
	go s.debounceLoop()
	go s.tickerLoop()

	select {
	case <-ctx.Done():
		s.config.Logger.Println("Shutdown signal received")
		return s.Stop()
	case <-s.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.config.Logger.Println("Stopping scheduler")

	s.cancel()

	if err := s.watcher.Close(); err != nil {
		s.config.Logger.Printf("Error closing watcher: %v", err)
	}

	s.wg.Wait()

	s.config.Logger.Println("Scheduler stopped")
	return nil
}

// Status returns a snapshot of the current sync state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.CanSync = s.canSyncLocked()
	return st
}

// canSyncLocked reports whether a pass may start. Caller holds s.mu.
func (s *Scheduler) canSyncLocked() bool {
	return !s.inProgress && time.Since(s.lastSync) >= s.config.Cooldown
}

// SyncNow runs a pass immediately if one is allowed. A trigger arriving
// while a pass is in flight or inside the cooldown window is silently
// dropped; the next scheduled trigger picks the work up.
func (s *Scheduler) SyncNow() {
	s.runOnce(false)
}

// watchFileEvents monitors filesystem events and records local mutations.
func (s *Scheduler) watchFileEvents() {
	defer s.wg.Done()

	base := filepath.Base(s.dbPath)

	for {
		select {
		case <-s.ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// The database file plus its -wal and -shm sidecars.
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}

			s.markChanged()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// markChanged records a local mutation for the debounce loop.
func (s *Scheduler) markChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastChange = time.Now()
}

// debounceLoop syncs once a change has been quiet for the debounce interval.
func (s *Scheduler) debounceLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			s.mu.Lock()
			due := !s.lastChange.IsZero() &&
				time.Since(s.lastChange) >= s.config.DebounceInterval
			s.mu.Unlock()

			if due {
				s.runOnce(false)
			}
		}
	}
}

// tickerLoop drives the slower triggers: the auto-sync check that flushes
// changes the cooldown held back, and the unconditional periodic pass.
func (s *Scheduler) tickerLoop() {
	defer s.wg.Done()

	auto := time.NewTicker(s.config.AutoSyncInterval)
	defer auto.Stop()
	periodic := time.NewTicker(s.config.PeriodicInterval)
	defer periodic.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-auto.C:
			s.mu.Lock()
			pending := !s.lastChange.IsZero()
			s.mu.Unlock()

			if pending {
				s.runOnce(false)
			}

		case <-periodic.C:
			s.runOnce(false)
		}
	}
}

// runOnce performs a single pass, enforcing mutual exclusion and (unless
// forced) the cooldown window.
func (s *Scheduler) runOnce(force bool) {
	s.mu.Lock()
	if s.inProgress {
		s.mu.Unlock()
		return
	}
	if !force && time.Since(s.lastSync) < s.config.Cooldown {
		s.mu.Unlock()
		return
	}
	s.inProgress = true
	changeMark := s.lastChange
	s.statusSeq++
	seq := s.statusSeq
	s.status.State = StateSyncing
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inProgress = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.config.SyncTimeout)
	defer cancel()

	if s.creds != nil && s.creds.Stale(s.config.TokenMaxAge) {
		s.config.Logger.Println("Token is aging, refreshing before sync")
		if err := s.creds.Refresh(ctx); err != nil {
			s.finish(seq, tasksync.Stats{}, fmt.Errorf("token refresh failed: %w", err))
			return
		}
	}

	stats, err := s.syncer.RunSync(ctx)
	if errors.Is(err, gtasks.ErrAuth) && s.creds != nil {
		s.config.Logger.Println("Auth failure, refreshing token and retrying once")
		if rerr := s.creds.Refresh(ctx); rerr != nil {
			err = fmt.Errorf("token refresh after auth failure: %w", rerr)
		} else {
			stats, err = s.syncer.RunSync(ctx)
		}
	}

	s.mu.Lock()
	s.lastSync = time.Now()
	// Clear the pending change unless a new one arrived mid-pass.
	if !changeMark.IsZero() && s.lastChange.Equal(changeMark) {
		s.lastChange = time.Time{}
	}
	s.mu.Unlock()

	s.finish(seq, stats, err)
}

// finish records the pass outcome and schedules the status reset.
func (s *Scheduler) finish(seq int, stats tasksync.Stats, err error) {
	s.mu.Lock()
	s.status.LastSync = time.Now()
	s.status.LastStats = stats

	resetAfter := s.config.SuccessResetAfter
	if err != nil {
		s.config.Logger.Printf("Sync failed: %v", err)
		s.status.State = StateError
		s.status.LastError = err.Error()
		resetAfter = s.config.ErrorResetAfter
	} else {
		s.config.Logger.Printf("Sync complete: %s", stats.String())
		s.status.State = StateSuccess
		s.status.LastError = ""
	}
	s.mu.Unlock()

	time.AfterFunc(resetAfter, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// A newer pass owns the status now; leave it alone.
		if s.statusSeq == seq && s.status.State != StateSyncing {
			s.status.State = StateIdle
		}
	})
}
