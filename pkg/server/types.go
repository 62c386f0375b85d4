// Package server exposes the bridge over a unix socket.
//
// Each application window holds one websocket connection. The server
// assigns the window its identity on connect, registers it with the
// window hub, relays subscribe/unsubscribe requests to the bridge,
// and pushes status-changed events back down the same connection.
// Windows can also stash small key/value state (geometry, the last
// worktree they had open) which the daemon persists for them.
// When the connection drops the window is unregistered, which tears
// its subscriptions down through the hub's destroyed hook.
package server

import "time"

// Message types exchanged with windows.
const (
	// TypeHello is sent by the server on connect and carries the
	// window identity assigned to the connection.
	TypeHello = "hello"

	// TypeSubscribe asks for git-state events for a worktree.
	TypeSubscribe = "subscribe"

	// TypeUnsubscribe drops interest in a worktree.
	TypeUnsubscribe = "unsubscribe"

	// TypeStatusChanged is pushed when a subscribed worktree's git
	// state changed; Changed names the tracked sub-paths.
	TypeStatusChanged = "status-changed"

	// TypeStateGet asks for one persisted state value for this window.
	TypeStateGet = "state-get"

	// TypeStatePut stores one persisted state value for this window.
	TypeStatePut = "state-put"

	// TypeState answers a state-get; Found reports whether the key
	// exists.
	TypeState = "state"

	// TypeError reports a failed request back to the window.
	TypeError = "error"
)

// StateKeyLastWorktree is the state key under which the server records
// the worktree a window most recently subscribed to.
const StateKeyLastWorktree = "last-worktree"

// Message is the frame exchanged over a window's websocket.
type Message struct {
	Type     string   `json:"type"`
	WindowID string   `json:"window_id,omitempty"`
	Worktree string   `json:"worktree,omitempty"`
	Changed  []string `json:"changed,omitempty"`
	Key      string   `json:"key,omitempty"`
	Value    string   `json:"value,omitempty"`
	Found    bool     `json:"found,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Config contains server configuration.
type Config struct {
	// SocketPath is the unix socket windows connect to.
	SocketPath string

	// ShutdownTimeout bounds how long Shutdown waits for in-flight
	// connections. Default: 5s.
	ShutdownTimeout time.Duration

	// WriteTimeout bounds each frame write to a window. A window that
	// stops reading its socket fails the write instead of blocking
	// event delivery. Default: 5s.
	WriteTimeout time.Duration
}
