package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for config file in:
// 1. ./gitwatch.yaml (current directory)
// 2. ~/.config/gitwatch/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	// Start with default configuration
	cfg := Default()

	// Find config file path
	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	// Load from file if it exists
	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// If file is specified but can't be loaded, return error
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
			// Otherwise, just use defaults
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
		}
	}

	// Apply environment variable overrides
	cfg = l.applyEnvVars(cfg)

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches for a config file in standard locations.
//
// Searches in order:
// 1. ./gitwatch.yaml
// 2. ~/.config/gitwatch/config.yaml
//
// Returns empty string if no config file is found.
func (l *loader) findConfigFile() string {
	candidates := []string{
		"./gitwatch.yaml",
		defaultConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	// Merge watch config
	if override.Watch.CoalesceWindow > 0 {
		result.Watch.CoalesceWindow = override.Watch.CoalesceWindow
	}
	if override.Watch.EventBuffer > 0 {
		result.Watch.EventBuffer = override.Watch.EventBuffer
	}

	// Merge server config
	if override.Server.SocketPath != "" {
		result.Server.SocketPath = override.Server.SocketPath
	}
	if override.Server.ShutdownTimeout > 0 {
		result.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	// Merge storage config
	if override.Storage.StateDBPath != "" {
		result.Storage.StateDBPath = override.Storage.StateDBPath
	}

	// Merge logging config
	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - GITWATCH_SOCKET: Path to the unix socket
//   - GITWATCH_STATE_DB: Path to the window-state database
//   - GITWATCH_COALESCE_WINDOW: Coalesce window (Go duration string)
//   - GITWATCH_LOG_LEVEL: Log level
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	// GITWATCH_SOCKET: unix socket path
	if socketPath := os.Getenv("GITWATCH_SOCKET"); socketPath != "" {
		result.Server.SocketPath = socketPath
	}

	// GITWATCH_STATE_DB: window-state database path
	if dbPath := os.Getenv("GITWATCH_STATE_DB"); dbPath != "" {
		result.Storage.StateDBPath = dbPath
	}

	// GITWATCH_COALESCE_WINDOW: coalesce window
	if window := os.Getenv("GITWATCH_COALESCE_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil && d > 0 {
			result.Watch.CoalesceWindow = d
		}
	}

	// GITWATCH_LOG_LEVEL: log level
	if logLevel := os.Getenv("GITWATCH_LOG_LEVEL"); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	return &result
}

// Load is a convenience function that creates a loader and loads configuration.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}
