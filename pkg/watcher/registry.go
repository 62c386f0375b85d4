package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/0xmhha/gitwatch/pkg/logger"
)

// registry implements the Registry interface using fsnotify.
type registry struct {
	config Config
	logger logger.Logger

	mu       sync.Mutex
	entries  map[string]*watchEntry
	disposed bool
}

// watchEntry owns the single fsnotify watcher for one worktree.
type watchEntry struct {
	worktree string
	gitDir   string
	fsw      *fsnotify.Watcher

	mu         sync.Mutex
	listeners  map[int]OnEvent
	nextToken  int
	pending    map[string]struct{}
	flushTimer *time.Timer

	events    chan Event
	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewRegistry creates a new watcher registry.
//
// Parameters:
//   - cfg: Registry configuration
//   - log: Logger instance
//
// Returns a registry with no active watches. Watches are opened
// lazily by Subscribe and all closed by DisposeAll.
func NewRegistry(cfg Config, log logger.Logger) Registry {
	// Set defaults.
	if cfg.CoalesceWindow == 0 {
		cfg.CoalesceWindow = 100 * time.Millisecond
	}
	if cfg.EventBuffer == 0 {
		cfg.EventBuffer = 64
	}

	return &registry{
		config:  cfg,
		logger:  log,
		entries: make(map[string]*watchEntry),
	}
}

// Subscribe implements Registry.Subscribe.
func (r *registry) Subscribe(ctx context.Context, worktreePath string, onEvent OnEvent) (UnsubscribeFunc, error) {
	if onEvent == nil {
		return nil, fmt.Errorf("onEvent callback must not be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canonical, err := CanonicalWorktreePath(worktreePath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return nil, ErrRegistryDisposed
	}

	entry, ok := r.entries[canonical]
	if !ok {
		// First subscriber: open the watch. Subscribe returns only
		// after fsnotify confirms the path is watched, so callers can
		// rely on the watch being active.
		entry, err = r.openEntry(canonical)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		r.entries[canonical] = entry

		go r.watchLoop(entry)
		go r.dispatchLoop(entry)

		r.logger.Info("watch opened",
			"worktree", canonical,
			"git_dir", entry.gitDir)
	}

	token := entry.addListener(onEvent)
	r.mu.Unlock()

	r.logger.Debug("listener registered", "worktree", canonical, "token", token)

	return r.unsubscribeFunc(canonical, entry, token), nil
}

// DisposeAll implements Registry.DisposeAll.
func (r *registry) DisposeAll(ctx context.Context) error {
	r.mu.Lock()
	r.disposed = true
	entries := make([]*watchEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.entries = make(map[string]*watchEntry)
	r.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, e := range entries {
		g.Go(e.close)
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to close watches: %w", err)
	}

	r.logger.Info("all watches disposed", "count", len(entries))
	return nil
}

// openEntry opens the fsnotify watcher for a worktree.
// Caller must hold r.mu.
//
// The gitdir directory is watched rather than the index and HEAD
// files themselves: git replaces both files by renaming a temp file
// into place, which would silently detach a per-file watch. Events
// are filtered down to the two tracked names, so the rest of the
// repository generates no load.
func (r *registry) openEntry(canonical string) (*watchEntry, error) {
	gitDir, err := ResolveGitDir(canonical)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := fsw.Add(gitDir); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			r.logger.Error("failed to close watcher after add error", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", gitDir, err)
	}

	return &watchEntry{
		worktree:  canonical,
		gitDir:    gitDir,
		fsw:       fsw,
		listeners: make(map[int]OnEvent),
		pending:   make(map[string]struct{}),
		events:    make(chan Event, r.config.EventBuffer),
		stopCh:    make(chan struct{}),
	}, nil
}

// unsubscribeFunc builds the idempotent capability returned by Subscribe.
func (r *registry) unsubscribeFunc(canonical string, entry *watchEntry, token int) UnsubscribeFunc {
	return func() {
		r.mu.Lock()
		cur, ok := r.entries[canonical]
		if !ok || cur != entry {
			// Entry already reaped or registry disposed: no-op.
			r.mu.Unlock()
			return
		}

		remaining, removed := entry.removeListener(token)
		if !removed || remaining > 0 {
			r.mu.Unlock()
			return
		}

		// Last listener gone: reap eagerly.
		delete(r.entries, canonical)
		r.mu.Unlock()

		if err := entry.close(); err != nil {
			r.logger.Warn("failed to close watch", "worktree", canonical, "error", err)
		}
		r.logger.Info("watch closed", "worktree", canonical)
	}
}

// watchLoop forwards raw fsnotify notifications into the entry's
// coalescing state until the entry is closed or the watch is lost.
func (r *registry) watchLoop(e *watchEntry) {
	for {
		select {
		case <-e.stopCh:
			return

		case ev, ok := <-e.fsw.Events:
			if !ok {
				return
			}
			e.handleRaw(ev, r.config.CoalesceWindow)

		case err, ok := <-e.fsw.Errors:
			if !ok {
				return
			}
			// The watch errored out after being established, e.g. the
			// gitdir was deleted mid-session. Treated as an implicit
			// close: reap the entry, log only.
			r.logger.Warn("watch lost, reaping entry",
				"worktree", e.worktree,
				"error", err)
			r.reap(e)
			return
		}
	}
}

// dispatchLoop delivers coalesced events to the entry's listeners in
// flush order.
func (r *registry) dispatchLoop(e *watchEntry) {
	for {
		select {
		case <-e.stopCh:
			return

		case ev := <-e.events:
			// The listener set is read at delivery time, not at event
			// creation time: an unsubscribe racing a pending flush
			// resolves to "not delivered".
			for _, fn := range e.snapshotListeners() {
				fn(ev)
			}
		}
	}
}

// reap removes an entry from the registry and closes it. Used when a
// live watch is lost; normal teardown goes through unsubscribe.
func (r *registry) reap(e *watchEntry) {
	r.mu.Lock()
	if cur, ok := r.entries[e.worktree]; ok && cur == e {
		delete(r.entries, e.worktree)
	}
	r.mu.Unlock()

	if err := e.close(); err != nil {
		r.logger.Debug("error closing reaped watch", "worktree", e.worktree, "error", err)
	}
}

// addListener registers a callback and returns its removal token.
func (e *watchEntry) addListener(onEvent OnEvent) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	token := e.nextToken
	e.nextToken++
	e.listeners[token] = onEvent
	return token
}

// removeListener removes the callback registered under token.
// Returns the number of listeners left and whether the token was
// still present (false on repeat unsubscribe).
func (e *watchEntry) removeListener(token int) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.listeners[token]; !ok {
		return len(e.listeners), false
	}
	delete(e.listeners, token)
	return len(e.listeners), true
}

// snapshotListeners returns the current callbacks in token order.
func (e *watchEntry) snapshotListeners() []OnEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	tokens := make([]int, 0, len(e.listeners))
	for token := range e.listeners {
		tokens = append(tokens, token)
	}
	sort.Ints(tokens)

	callbacks := make([]OnEvent, 0, len(tokens))
	for _, token := range tokens {
		callbacks = append(callbacks, e.listeners[token])
	}
	return callbacks
}

// handleRaw folds one raw notification into the current batch.
func (e *watchEntry) handleRaw(ev fsnotify.Event, window time.Duration) {
	name := filepath.Base(ev.Name)
	if name != SubPathIndex && name != SubPathHead {
		return
	}

	// git replaces index and HEAD by writing a temp file and renaming
	// it into place; Create covers the rename target appearing under
	// the tracked name.
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending[name] = struct{}{}
	if e.flushTimer == nil {
		// The timer starts at the first notification of a batch and is
		// not reset by later arrivals, so the flush delay is bounded
		// even under a continuous stream of changes.
		e.flushTimer = time.AfterFunc(window, e.flush)
	}
}

// flush emits the accumulated batch as one domain event. The send
// happens under e.mu: a later batch cannot enter the channel before
// this one, so events for the worktree stay in batch order.
func (e *watchEntry) flush() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.flushTimer = nil
	if len(e.pending) == 0 {
		return
	}

	changed := make([]string, 0, len(e.pending))
	for name := range e.pending {
		changed = append(changed, name)
	}
	e.pending = make(map[string]struct{})
	sort.Strings(changed)

	select {
	case e.events <- Event{
		WorktreePath: e.worktree,
		Changed:      changed,
		Timestamp:    time.Now(),
	}:
	case <-e.stopCh:
	}
}

// close releases the entry's fsnotify watcher. Safe to call more than
// once; the watch handle is closed exactly once.
func (e *watchEntry) close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.stopCh)

		e.mu.Lock()
		if e.flushTimer != nil {
			e.flushTimer.Stop()
			e.flushTimer = nil
		}
		e.listeners = nil
		e.mu.Unlock()

		err = e.fsw.Close()
	})
	return err
}
