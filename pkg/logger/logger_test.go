package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "default config",
			config: Config{
				Level:  "info",
				Output: "stderr",
				Format: "text",
			},
		},
		{
			name: "debug level",
			config: Config{
				Level:  "debug",
				Output: "stderr",
				Format: "text",
			},
		},
		{
			name: "json format",
			config: Config{
				Level:  "info",
				Output: "stderr",
				Format: "json",
			},
		},
		{
			name: "stdout output",
			config: Config{
				Level:  "info",
				Output: "stdout",
				Format: "text",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.config)
			if log == nil {
				t.Error("New() returned nil")
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	log := New(Config{
		Level:  "debug",
		Output: logFile,
		Format: "text",
	})

	log.Debug("debug message", "worktree", "/tmp/repo")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	content := string(data)
	for _, want := range []string{"debug message", "info message", "warn message", "error message"} {
		if !strings.Contains(content, want) {
			t.Errorf("log file missing %q", want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	log := New(Config{
		Level:  "warn",
		Output: logFile,
		Format: "text",
	})

	log.Debug("hidden debug")
	log.Info("hidden info")
	log.Warn("visible warn")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	content := string(data)
	if strings.Contains(content, "hidden debug") || strings.Contains(content, "hidden info") {
		t.Error("log contains messages below configured level")
	}
	if !strings.Contains(content, "visible warn") {
		t.Error("log missing warn message")
	}
}

func TestWith(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	log := New(Config{
		Level:  "info",
		Output: logFile,
		Format: "text",
	})

	child := log.With("worktree", "/tmp/repo")
	child.Info("event delivered")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	if !strings.Contains(string(data), "/tmp/repo") {
		t.Error("log missing field added by With()")
	}
}

func TestNoop(t *testing.T) {
	log := Noop()
	// Must not panic or write anywhere.
	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("dropped")
	log.Error("dropped")
	log.With("key", "value").Info("dropped")
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Error("Default() returned nil")
	}
}
