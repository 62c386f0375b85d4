package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// gitFilePrefix is the marker line written by git into the .git file
// of a linked worktree.
const gitFilePrefix = "gitdir: "

// CanonicalWorktreePath resolves a worktree path to its canonical
// form: absolute, symlinks resolved. Two spellings that reach the same
// directory canonicalize to the same string, which is what both the
// registry and the cache key on.
//
// Returns an error if the path does not exist.
func CanonicalWorktreePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to absolutize path %s: %w", path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", abs, err)
	}

	return resolved, nil
}

// ResolveGitDir locates the git metadata directory for a worktree.
//
// For a standard worktree this is the .git directory itself. For a
// linked worktree, .git is a file containing a "gitdir: <path>" line
// pointing at the real metadata directory; relative pointers are
// resolved against the worktree.
//
// Returns ErrNotAWorktree if neither exists.
func ResolveGitDir(worktreePath string) (string, error) {
	gitPath := filepath.Join(worktreePath, ".git")

	info, err := os.Stat(gitPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotAWorktree, worktreePath)
		}
		return "", fmt.Errorf("failed to stat %s: %w", gitPath, err)
	}

	if info.IsDir() {
		return gitPath, nil
	}

	// Linked worktree: .git is a pointer file.
	data, err := os.ReadFile(gitPath) // nolint:gosec
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", gitPath, err)
	}

	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, gitFilePrefix) {
		return "", fmt.Errorf("%w: %s", ErrMalformedGitFile, gitPath)
	}

	target := strings.TrimSpace(strings.TrimPrefix(line, gitFilePrefix))
	if target == "" {
		return "", fmt.Errorf("%w: %s", ErrMalformedGitFile, gitPath)
	}

	if !filepath.IsAbs(target) {
		target = filepath.Join(worktreePath, target)
	}

	return filepath.Clean(target), nil
}
