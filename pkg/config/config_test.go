package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Verify defaults are set
	if cfg.Watch.CoalesceWindow <= 0 {
		t.Error("CoalesceWindow not set")
	}

	if cfg.Watch.EventBuffer <= 0 {
		t.Error("EventBuffer not set")
	}

	if cfg.Server.SocketPath == "" {
		t.Error("SocketPath not set")
	}

	if cfg.Storage.StateDBPath == "" {
		t.Error("StateDBPath not set")
	}

	if cfg.Logging.Level == "" {
		t.Error("Log level not set")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config { return Default() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid default config",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "zero coalesce window",
			mutate:  func(c *Config) { c.Watch.CoalesceWindow = 0 },
			wantErr: ErrInvalidCoalesceWindow,
		},
		{
			name:    "negative event buffer",
			mutate:  func(c *Config) { c.Watch.EventBuffer = -1 },
			wantErr: ErrInvalidEventBuffer,
		},
		{
			name:    "missing socket path",
			mutate:  func(c *Config) { c.Server.SocketPath = "" },
			wantErr: ErrNoSocketPath,
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantErr: ErrInvalidShutdownTimeout,
		},
		{
			name:    "missing state db path",
			mutate:  func(c *Config) { c.Storage.StateDBPath = "" },
			wantErr: ErrNoStateDBPath,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: ErrInvalidLogFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "gitwatch.yaml")

	content := `
watch:
  coalesce_window: 250ms
  event_buffer: 32
server:
  socket_path: /tmp/test-gitwatch.sock
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Watch.CoalesceWindow != 250*time.Millisecond {
		t.Errorf("CoalesceWindow = %v, want 250ms", cfg.Watch.CoalesceWindow)
	}
	if cfg.Watch.EventBuffer != 32 {
		t.Errorf("EventBuffer = %d, want 32", cfg.Watch.EventBuffer)
	}
	if cfg.Server.SocketPath != "/tmp/test-gitwatch.sock" {
		t.Errorf("SocketPath = %s", cfg.Server.SocketPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %s, want debug", cfg.Logging.Level)
	}

	// Unset fields keep defaults.
	if cfg.Storage.StateDBPath == "" {
		t.Error("StateDBPath default not applied")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "missing.yaml")

	_, err := NewLoader(path).Load()
	if err == nil {
		t.Error("Load() error = nil, want error for missing explicit config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bad.yaml")

	if err := os.WriteFile(path, []byte("watch: [unclosed"), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := NewLoader("").LoadFromFile(path)
	if !errors.Is(err, ErrInvalidYAML) {
		t.Errorf("LoadFromFile() error = %v, want ErrInvalidYAML", err)
	}
}

func TestApplyEnvVars(t *testing.T) {
	t.Setenv("GITWATCH_SOCKET", "/tmp/env.sock")
	t.Setenv("GITWATCH_LOG_LEVEL", "ERROR")
	t.Setenv("GITWATCH_COALESCE_WINDOW", "75ms")

	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.SocketPath != "/tmp/env.sock" {
		t.Errorf("SocketPath = %s, want /tmp/env.sock", cfg.Server.SocketPath)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Level = %s, want error", cfg.Logging.Level)
	}
	if cfg.Watch.CoalesceWindow != 75*time.Millisecond {
		t.Errorf("CoalesceWindow = %v, want 75ms", cfg.Watch.CoalesceWindow)
	}
}
