package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Watch: WatchConfig{
			CoalesceWindow: 100 * time.Millisecond,
			EventBuffer:    64,
		},
		Server: ServerConfig{
			SocketPath:      defaultSocketPath(),
			ShutdownTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			StateDBPath: defaultStateDBPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// defaultSocketPath returns the default unix socket path.
//
// Returns: ~/.config/gitwatch/gitwatch.sock.
func defaultSocketPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./gitwatch.sock"
	}

	return filepath.Join(homeDir, ".config", "gitwatch", "gitwatch.sock")
}

// defaultStateDBPath returns the default window-state database path.
//
// Returns: ~/.config/gitwatch/state.db.
func defaultStateDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./state.db"
	}

	return filepath.Join(homeDir, ".config", "gitwatch", "state.db")
}

// defaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/gitwatch/config.yaml.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "gitwatch", "config.yaml")
}
