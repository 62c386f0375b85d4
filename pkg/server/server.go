package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/0xmhha/gitwatch/pkg/bridge"
	"github.com/0xmhha/gitwatch/pkg/logger"
	"github.com/0xmhha/gitwatch/pkg/watcher"
	"github.com/0xmhha/gitwatch/pkg/windows"
)

// Server manages the daemon's HTTP server over a unix socket.
type Server struct {
	config   Config
	logger   logger.Logger
	hub      windows.Hub
	bridge   bridge.Bridge
	state    windows.StateStore
	upgrader websocket.Upgrader

	mu     sync.Mutex
	server *http.Server
}

// New creates a new Server instance.
//
// Parameters:
//   - cfg: Server configuration
//   - hub: Window hub to register connections with
//   - br: Bridge handling subscribe/unsubscribe requests
//   - state: Store for per-window persisted state
//   - log: Logger instance
func New(cfg Config, hub windows.Hub, br bridge.Bridge, state windows.StateStore, log logger.Logger) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	s := &Server{
		config: cfg,
		logger: log,
		hub:    hub,
		bridge: br,
		state:  state,
	}

	// A destroyed window's persisted state goes with it.
	hub.OnDestroyed(func(id uuid.UUID) {
		if err := state.DropWindow(id); err != nil {
			log.Warn("failed to drop window state", "window", id, "error", err)
		}
	})

	return s
}

// ListenAndServe starts the daemon on the configured unix socket.
// It blocks until the server stops or fails.
func (s *Server) ListenAndServe() error {
	socketPath := s.config.SocketPath

	// A leftover socket file is only stale if nothing answers on it;
	// a live daemon keeps exclusive claim on the path.
	if _, err := os.Stat(socketPath); err == nil {
		if conn, dialErr := net.DialTimeout("unix", socketPath, time.Second); dialErr == nil {
			_ = conn.Close()
			return fmt.Errorf("daemon already running on %s", socketPath)
		}
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(socketPath), 0700); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	// Set restrictive permissions on socket
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			s.logger.Debug("failed to write health response", "error", err)
		}
	})

	// Window connections
	mux.HandleFunc("/ws", s.handleWindow)

	srv := &http.Server{
		Handler: mux,
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("daemon listening", "socket", socketPath)
	return srv.Serve(listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// windowConn serializes writes to one window's websocket; the
// delivery capability and request replies share the connection.
type windowConn struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

// write sends one frame. Every write carries a deadline: delivery runs
// on a worktree's dispatch goroutine, so a window that stops reading
// must fail the write rather than stall events for every listener of
// that worktree.
func (wc *windowConn) write(msg Message) error {
	wc.mu.Lock()
	defer wc.mu.Unlock()

	if err := wc.conn.SetWriteDeadline(time.Now().Add(wc.timeout)); err != nil {
		return err
	}
	return wc.conn.WriteJSON(msg)
}

// handleWindow owns one window connection for its whole life.
func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := uuid.New()
	wc := &windowConn{conn: conn, timeout: s.config.WriteTimeout}
	log := s.logger.With("window", id)

	deliver := func(ev watcher.Event) error {
		return wc.write(Message{
			Type:     TypeStatusChanged,
			Worktree: ev.WorktreePath,
			Changed:  ev.Changed,
		})
	}

	if err := s.hub.Register(id, deliver); err != nil {
		log.Error("failed to register window", "error", err)
		_ = conn.Close()
		return
	}

	// Unregister fires the hub's destroyed hooks, releasing every
	// subscription this window holds.
	defer func() {
		s.hub.Unregister(id)
		_ = conn.Close()
	}()

	if err := wc.write(Message{Type: TypeHello, WindowID: id.String()}); err != nil {
		log.Warn("failed to send hello", "error", err)
		return
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("window connection lost", "error", err)
			} else {
				log.Debug("window disconnected")
			}
			return
		}

		s.handleRequest(r.Context(), id, wc, msg, log)
	}
}

// handleRequest dispatches one inbound frame.
func (s *Server) handleRequest(ctx context.Context, id uuid.UUID, wc *windowConn, msg Message, log logger.Logger) {
	switch msg.Type {
	case TypeSubscribe:
		if err := s.bridge.HandleSubscribe(ctx, id, msg.Worktree); err != nil {
			log.Warn("subscribe failed", "worktree", msg.Worktree, "error", err)
			if writeErr := wc.write(Message{
				Type:     TypeError,
				Worktree: msg.Worktree,
				Error:    err.Error(),
			}); writeErr != nil {
				log.Debug("failed to report subscribe error", "error", writeErr)
			}
			return
		}

		// Remember where this window was working so it can restore
		// itself on the next launch.
		if err := s.state.Put(id, StateKeyLastWorktree, []byte(msg.Worktree)); err != nil {
			log.Warn("failed to record last worktree", "error", err)
		}

	case TypeUnsubscribe:
		s.bridge.HandleUnsubscribe(msg.Worktree)

	case TypeStatePut:
		if err := s.state.Put(id, msg.Key, []byte(msg.Value)); err != nil {
			log.Warn("failed to store window state", "key", msg.Key, "error", err)
			if writeErr := wc.write(Message{
				Type:  TypeError,
				Key:   msg.Key,
				Error: err.Error(),
			}); writeErr != nil {
				log.Debug("failed to report state error", "error", writeErr)
			}
		}

	case TypeStateGet:
		value, found, err := s.state.Get(id, msg.Key)
		if err != nil {
			log.Warn("failed to read window state", "key", msg.Key, "error", err)
			if writeErr := wc.write(Message{
				Type:  TypeError,
				Key:   msg.Key,
				Error: err.Error(),
			}); writeErr != nil {
				log.Debug("failed to report state error", "error", writeErr)
			}
			return
		}
		if writeErr := wc.write(Message{
			Type:  TypeState,
			Key:   msg.Key,
			Value: string(value),
			Found: found,
		}); writeErr != nil {
			log.Debug("failed to send state reply", "error", writeErr)
		}

	default:
		log.Debug("unknown message type", "type", msg.Type)
	}
}
