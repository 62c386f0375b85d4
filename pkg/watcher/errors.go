package watcher

import "errors"

// Common errors returned by the watcher registry.
var (
	// ErrRegistryDisposed is returned when Subscribe is called after DisposeAll.
	ErrRegistryDisposed = errors.New("watcher registry disposed")

	// ErrNotAWorktree is returned when the path has no .git directory or pointer file.
	ErrNotAWorktree = errors.New("path is not a git worktree")

	// ErrMalformedGitFile is returned when a .git pointer file cannot be parsed.
	ErrMalformedGitFile = errors.New("malformed .git pointer file")
)
