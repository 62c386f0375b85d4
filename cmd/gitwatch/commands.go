package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/0xmhha/gitwatch/pkg/bridge"
	"github.com/0xmhha/gitwatch/pkg/cache"
	"github.com/0xmhha/gitwatch/pkg/config"
	"github.com/0xmhha/gitwatch/pkg/logger"
	"github.com/0xmhha/gitwatch/pkg/server"
	"github.com/0xmhha/gitwatch/pkg/watcher"
	"github.com/0xmhha/gitwatch/pkg/windows"
)

// serveCommand runs the watch daemon until interrupted.
type serveCommand struct {
	configPath string
	socketPath string
}

// Execute runs the serve command.
func (c *serveCommand) Execute() error {
	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if c.socketPath != "" {
		cfg.Server.SocketPath = c.socketPath
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Format: logFormat(cfg),
	})

	log.Info("starting gitwatch",
		"version", version,
		"socket", cfg.Server.SocketPath)

	// Assemble the pipeline: registry -> cache -> bridge -> hub.
	registry := watcher.NewRegistry(watcher.Config{
		CoalesceWindow: cfg.Watch.CoalesceWindow,
		EventBuffer:    cfg.Watch.EventBuffer,
	}, log)

	stateStore, err := windows.NewBoltStateStore(cfg.Storage.StateDBPath)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer func() {
		if closeErr := stateStore.Close(); closeErr != nil {
			log.Error("failed to close state store", "error", closeErr)
		}
	}()

	hub := windows.NewHub(log)
	derived := cache.New(log)
	br := bridge.New(registry, derived, hub, log)

	// Window teardown releases that window's subscriptions.
	hub.OnDestroyed(br.WindowClosed)

	srv := server.New(server.Config{
		SocketPath:      cfg.Server.SocketPath,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, hub, br, stateStore, log)

	// Run until interrupted.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	// Ordered teardown: stop accepting connections, then release
	// every subscription and watch handle.
	ctx := context.Background()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if err := br.Shutdown(ctx); err != nil {
		return fmt.Errorf("bridge shutdown failed: %w", err)
	}

	log.Info("gitwatch stopped")
	return nil
}

// logFormat resolves the configured log format, picking json for
// non-interactive runs when left at the text default writing to a
// terminal stream.
func logFormat(cfg *config.Config) string {
	if cfg.Logging.Format != "text" {
		return cfg.Logging.Format
	}

	switch cfg.Logging.Output {
	case "stderr", "":
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			return "json"
		}
	case "stdout":
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return "json"
		}
	}

	return cfg.Logging.Format
}
