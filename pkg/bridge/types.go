// Package bridge is the single point of contact between windows and
// the watch pipeline.
//
// It accepts subscribe and unsubscribe requests tagged with a window
// identity, registers listeners with the watcher registry, invalidates
// the derived-state cache on every event, and forwards the event to
// exactly the window that created the subscription. Window-destroyed
// notifications tear down that window's subscriptions; Shutdown drains
// everything and disposes the registry.
//
// The bridge tracks at most one forwarding subscription per worktree
// process-wide. A second subscribe for an already-subscribed worktree
// is a no-op, whichever window it came from; the registry underneath
// remains capable of multi-listener fan-out.
package bridge

import (
	"context"

	"github.com/google/uuid"

	"github.com/0xmhha/gitwatch/pkg/windows"
)

// WindowResolver looks a window identity up to its delivery
// capability. Satisfied by windows.Hub.
type WindowResolver interface {
	Resolve(id uuid.UUID) (windows.DeliverFunc, bool)
}

// Bridge routes subscribe/unsubscribe requests and watch events.
type Bridge interface {
	// HandleSubscribe subscribes the given window to git-state events
	// for a worktree. No-op if a subscription for that worktree
	// already exists. If the window is already gone when the request
	// is handled, the attempt is abandoned without registering a
	// listener. Watch-open failures are returned to the caller.
	HandleSubscribe(ctx context.Context, windowID uuid.UUID, worktreePath string) error

	// HandleUnsubscribe tears down the subscription for a worktree.
	// Any caller may request it; no-op when none exists.
	HandleUnsubscribe(worktreePath string)

	// Subscribed reports whether a forwarding subscription exists for
	// the worktree.
	Subscribed(worktreePath string) bool

	// WindowClosed tears down every subscription recorded for the
	// destroyed window. Matches windows.DestroyedHook.
	WindowClosed(windowID uuid.UUID)

	// Shutdown unsubscribes everything, then disposes the registry so
	// no OS watch handle outlives teardown.
	Shutdown(ctx context.Context) error
}
