// Package config provides configuration management for gitwatch.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file
// 3. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.NewLoader("").Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Socket: %s\n", cfg.Server.SocketPath)
package config

import (
	"time"
)

// Config represents the complete daemon configuration.
//
// Invariants:
// - Watch.CoalesceWindow must be > 0
// - Watch.EventBuffer must be > 0
// - Server.SocketPath must be non-empty
// - Storage.StateDBPath must be non-empty
// - Logging.Level and Logging.Format must be recognized values.
type Config struct {
	// Watch settings
	Watch WatchConfig `yaml:"watch"`

	// Server settings
	Server ServerConfig `yaml:"server"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// WatchConfig contains watcher registry settings.
type WatchConfig struct {
	// Window within which raw git-state notifications for one
	// worktree are coalesced into a single event
	CoalesceWindow time.Duration `yaml:"coalesce_window"`

	// Buffer size of each worktree's raw notification channel
	EventBuffer int `yaml:"event_buffer"`
}

// ServerConfig contains transport settings.
type ServerConfig struct {
	// Path of the unix socket windows connect to
	SocketPath string `yaml:"socket_path"`

	// How long Shutdown waits for in-flight requests
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to the BoltDB file holding per-window persisted UI state
	StateDBPath string `yaml:"state_db_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Returns an error if any invariant is violated:
//   - Coalesce window or event buffer not > 0
//   - Missing socket path or state DB path
//   - Invalid log level or format
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if c.Watch.CoalesceWindow <= 0 {
		return ErrInvalidCoalesceWindow
	}
	if c.Watch.EventBuffer <= 0 {
		return ErrInvalidEventBuffer
	}
	if c.Server.SocketPath == "" {
		return ErrNoSocketPath
	}
	if c.Server.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}
	if c.Storage.StateDBPath == "" {
		return ErrNoStateDBPath
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	return nil
}
