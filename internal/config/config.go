// Package config loads the application configuration.
//
// Configuration lives in ~/.config/pomosync/config.yaml and every field has
// a default, so a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const appName = "pomosync"

// Config holds the application configuration.
type Config struct {
	// ConfigDir holds credentials.json and token.json.
	ConfigDir string `mapstructure:"configDir"`

	// DataDir holds the task database and the daemon log.
	DataDir string `mapstructure:"dataDir"`

	// TaskList is the remote task list id. Empty selects the default list.
	TaskList string `mapstructure:"taskList"`

	Daemon DaemonConfig `mapstructure:"daemon"`
}

// DaemonConfig tunes the background scheduler. Zero values fall back to the
// scheduler's own defaults.
type DaemonConfig struct {
	Cooldown         time.Duration `mapstructure:"cooldown"`
	DebounceInterval time.Duration `mapstructure:"debounceInterval"`
	AutoSyncInterval time.Duration `mapstructure:"autoSyncInterval"`
	PeriodicInterval time.Duration `mapstructure:"periodicInterval"`
	TokenMaxAge      time.Duration `mapstructure:"tokenMaxAge"`
	SyncTimeout      time.Duration `mapstructure:"syncTimeout"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		ConfigDir: filepath.Join(home, ".config", appName),
		DataDir:   filepath.Join(home, ".local", "share", appName),
	}
}

// Load reads the config file from the default location, merged over defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	return LoadFrom(filepath.Join(cfg.ConfigDir, "config.yaml"))
}

// LoadFrom reads the given config file, merged over defaults.
// A missing file returns the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// DBPath returns the task database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "tasks.db")
}

// LogPath returns the daemon log location.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "daemon.log")
}
