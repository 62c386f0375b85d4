// Package cache holds derived git state that is expensive to compute:
// per-worktree status summaries and parsed diffs.
//
// The cache stores opaque values keyed by canonical worktree path. Each
// worktree has two independent slots, status and parsed diff, which are
// invalidated separately from one another. Population is the caller's
// concern; the watch pipeline only ever invalidates.
//
// Content-addressed caches are deliberately not managed here: their
// entries are keyed by content hash, not by worktree path, so they stay
// valid across git operations and repopulate lazily on hash mismatch.
package cache

// Invalidator is the write-side interface consumed by the watch
// pipeline. Invalidation is idempotent; invalidating a slot that was
// never populated is a no-op.
type Invalidator interface {
	// InvalidateStatus marks the status slot for a worktree absent.
	InvalidateStatus(worktreePath string)

	// InvalidateParsedDiff marks the parsed-diff slot for a worktree absent.
	InvalidateParsedDiff(worktreePath string)
}

// Cache provides read, populate, and invalidate access to both slots.
type Cache interface {
	Invalidator

	// GetStatus returns the cached status for a worktree.
	// The second return is false when the slot is absent or invalidated.
	GetStatus(worktreePath string) (interface{}, bool)

	// SetStatus populates the status slot for a worktree.
	SetStatus(worktreePath string, value interface{})

	// GetParsedDiff returns the cached parsed diff for a worktree.
	// The second return is false when the slot is absent or invalidated.
	GetParsedDiff(worktreePath string) (interface{}, bool)

	// SetParsedDiff populates the parsed-diff slot for a worktree.
	SetParsedDiff(worktreePath string, value interface{})

	// StatusGeneration returns the number of times the status slot for
	// a worktree has changed (populations and effective invalidations).
	// Useful for detecting staleness across an event boundary.
	StatusGeneration(worktreePath string) uint64
}
