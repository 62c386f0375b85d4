// Package watcher provides the registry that watches git repository
// state on disk and fans change events out to subscribers.
//
// The registry owns at most one fsnotify watcher per worktree, no
// matter how many subscribers are interested in it. Raw notifications
// for .git/index and .git/HEAD are normalized and coalesced into a
// single domain event per burst, then delivered to every listener
// registered for that worktree. The underlying watch is closed the
// moment the last listener unsubscribes.
//
// Example usage:
//
//	reg := watcher.NewRegistry(watcher.Config{}, logger.Default())
//	unsubscribe, err := reg.Subscribe(ctx, "/home/user/repo", func(ev watcher.Event) {
//	    fmt.Printf("git state changed: %v\n", ev.Changed)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer unsubscribe()
package watcher

import (
	"context"
	"time"
)

// Tracked sub-paths reported in Event.Changed.
const (
	// SubPathIndex is the staging area file (.git/index).
	SubPathIndex = "index"

	// SubPathHead is the current-branch pointer (.git/HEAD).
	SubPathHead = "HEAD"
)

// Event is a normalized, coalesced git-state change notification.
type Event struct {
	// WorktreePath is the canonical path of the affected worktree.
	WorktreePath string

	// Changed names the tracked sub-paths that changed in this batch,
	// sorted, without duplicates ("HEAD", "index").
	Changed []string

	// Timestamp is when the batch was flushed.
	Timestamp time.Time
}

// OnEvent is the callback invoked for every domain event on a
// subscribed worktree. Callbacks run on the worktree's dispatch
// goroutine and must be short and non-blocking; heavy work belongs
// elsewhere.
type OnEvent func(Event)

// UnsubscribeFunc removes the listener a Subscribe call registered.
// It is safe to call more than once; second and subsequent calls are
// no-ops. When the last listener for a worktree is removed, the
// underlying watch is closed and the entry reaped.
type UnsubscribeFunc func()

// Registry multiplexes git-state watches across subscribers.
type Registry interface {
	// Subscribe registers a listener for git-state changes of the
	// given worktree. The path is canonicalized first; two spellings
	// of the same directory share one watch. Opens the underlying
	// watch on first subscription and returns only once the watch is
	// active, so callers never observe a watch-not-ready state.
	//
	// Returns an error (and registers nothing) if the path is not a
	// git worktree or the watch cannot be established.
	Subscribe(ctx context.Context, worktreePath string, onEvent OnEvent) (UnsubscribeFunc, error)

	// DisposeAll closes every open watch and clears all entries,
	// regardless of listener counts. Used at process shutdown.
	// Outstanding UnsubscribeFuncs become no-ops, and further
	// Subscribe calls fail with ErrRegistryDisposed.
	DisposeAll(ctx context.Context) error
}

// Config contains registry configuration.
type Config struct {
	// CoalesceWindow bounds how long a batch of raw notifications for
	// one worktree accumulates before it is flushed as a single event.
	// The timer starts at the first notification of a batch, so a
	// solitary change is never held longer than this window.
	// Default: 100ms.
	CoalesceWindow time.Duration

	// EventBuffer is the capacity of each worktree's coalesced event
	// queue between the flush timer and the dispatch goroutine.
	// Default: 64.
	EventBuffer int
}
