// Package windows tracks the application windows connected to the
// daemon.
//
// Each window is known by an opaque uuid identity. The hub maps an
// identity to a delivery capability used to push events to that
// window, and notifies registered hooks when a window is destroyed so
// its subscriptions can be torn down. The package also holds the
// per-window persisted UI state (geometry, last-opened worktree) in a
// BoltDB store.
package windows

import (
	"github.com/google/uuid"

	"github.com/0xmhha/gitwatch/pkg/watcher"
)

// DeliverFunc pushes a git-state change event to one window.
// Returns an error when the transport to the window has failed.
type DeliverFunc func(ev watcher.Event) error

// DestroyedHook is invoked when a window is unregistered.
type DestroyedHook func(id uuid.UUID)

// Hub is the live window registry.
type Hub interface {
	// Register adds a window under its identity with the capability
	// used to deliver events to it. Fails if the identity is taken.
	Register(id uuid.UUID, deliver DeliverFunc) error

	// Unregister removes a window and fires every destroyed hook with
	// its identity. Safe to call for an unknown identity.
	Unregister(id uuid.UUID)

	// Resolve returns the delivery capability for a window identity.
	// The second return is false if the window is gone.
	Resolve(id uuid.UUID) (DeliverFunc, bool)

	// OnDestroyed registers a hook fired on every Unregister.
	OnDestroyed(hook DestroyedHook)
}

// StateStore persists per-window UI state as key/value pairs,
// partitioned by window identity.
type StateStore interface {
	// Get returns the value stored under key for a window.
	// The second return is false when no value is stored.
	Get(id uuid.UUID, key string) ([]byte, bool, error)

	// Put stores a value under key for a window.
	Put(id uuid.UUID, key string, value []byte) error

	// Delete removes one key for a window. No-op when absent.
	Delete(id uuid.UUID, key string) error

	// DropWindow removes all state persisted for a window.
	DropWindow(id uuid.UUID) error

	// Close releases the underlying storage.
	Close() error
}
