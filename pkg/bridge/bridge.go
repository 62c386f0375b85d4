package bridge

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/0xmhha/gitwatch/pkg/cache"
	"github.com/0xmhha/gitwatch/pkg/logger"
	"github.com/0xmhha/gitwatch/pkg/watcher"
)

// subscription binds a worktree to the window that subscribed to it.
type subscription struct {
	worktreePath string

	// windowID is the identity recorded at subscribe time. Events
	// always route to this window, never to whichever window has
	// focus when they arrive.
	windowID uuid.UUID

	unsubscribe watcher.UnsubscribeFunc
}

// bridge implements the Bridge interface.
type bridge struct {
	registry watcher.Registry
	cache    cache.Invalidator
	resolver WindowResolver
	logger   logger.Logger

	mu       sync.Mutex
	subs     map[string]*subscription // canonical worktree -> subscription
	shutdown bool
}

// New creates a new subscription bridge.
//
// Parameters:
//   - reg: Watcher registry
//   - inv: Cache invalidator
//   - resolver: Window identity lookup
//   - log: Logger instance
func New(reg watcher.Registry, inv cache.Invalidator, resolver WindowResolver, log logger.Logger) Bridge {
	return &bridge{
		registry: reg,
		cache:    inv,
		resolver: resolver,
		logger:   log,
		subs:     make(map[string]*subscription),
	}
}

// HandleSubscribe implements Bridge.HandleSubscribe.
func (b *bridge) HandleSubscribe(ctx context.Context, windowID uuid.UUID, worktreePath string) error {
	canonical, err := watcher.CanonicalWorktreePath(worktreePath)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.shutdown {
		return ErrBridgeShutdown
	}

	if _, exists := b.subs[canonical]; exists {
		// Already subscribed: one forwarding subscription per
		// worktree, whichever window asked first.
		b.logger.Debug("subscribe ignored, worktree already subscribed",
			"worktree", canonical,
			"window", windowID)
		return nil
	}

	// The window may have been destroyed between the request being
	// sent and it being handled. Abandon before registering a
	// listener so nothing leaks.
	if _, ok := b.resolver.Resolve(windowID); !ok {
		b.logger.Warn("subscribe abandoned, window already gone",
			"worktree", canonical,
			"window", windowID)
		return nil
	}

	unsubscribe, err := b.registry.Subscribe(ctx, canonical, b.onEvent)
	if err != nil {
		return err
	}

	b.subs[canonical] = &subscription{
		worktreePath: canonical,
		windowID:     windowID,
		unsubscribe:  unsubscribe,
	}

	b.logger.Info("worktree subscribed",
		"worktree", canonical,
		"window", windowID)
	return nil
}

// HandleUnsubscribe implements Bridge.HandleUnsubscribe.
func (b *bridge) HandleUnsubscribe(worktreePath string) {
	key := b.lookupKey(worktreePath)

	b.mu.Lock()
	sub, ok := b.subs[key]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subs, key)
	b.mu.Unlock()

	sub.unsubscribe()
	b.logger.Info("worktree unsubscribed", "worktree", key)
}

// Subscribed implements Bridge.Subscribed.
func (b *bridge) Subscribed(worktreePath string) bool {
	key := b.lookupKey(worktreePath)

	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.subs[key]
	return ok
}

// WindowClosed implements Bridge.WindowClosed.
func (b *bridge) WindowClosed(windowID uuid.UUID) {
	b.mu.Lock()
	var torn []*subscription
	for key, sub := range b.subs {
		if sub.windowID == windowID {
			torn = append(torn, sub)
			delete(b.subs, key)
		}
	}
	b.mu.Unlock()

	for _, sub := range torn {
		sub.unsubscribe()
		b.logger.Info("subscription released on window close",
			"worktree", sub.worktreePath,
			"window", windowID)
	}
}

// Shutdown implements Bridge.Shutdown.
func (b *bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		return nil
	}
	b.shutdown = true
	var remaining []*subscription
	for _, sub := range b.subs {
		remaining = append(remaining, sub)
	}
	b.subs = make(map[string]*subscription)
	b.mu.Unlock()

	for _, sub := range remaining {
		sub.unsubscribe()
	}

	// DisposeAll guarantees no watch handle survives even if some
	// window-closed notifications were missed.
	if err := b.registry.DisposeAll(ctx); err != nil {
		return err
	}

	b.logger.Info("bridge shut down", "subscriptions_released", len(remaining))
	return nil
}

// onEvent is the listener the bridge registers with the registry.
// Invalidation strictly precedes delivery: a window that receives the
// event and immediately asks for fresh status must never observe the
// stale cached value.
func (b *bridge) onEvent(ev watcher.Event) {
	b.mu.Lock()
	sub, ok := b.subs[ev.WorktreePath]
	if !ok {
		// Raced with a concurrent unsubscribe; the event is dropped.
		b.mu.Unlock()
		b.logger.Debug("event for unsubscribed worktree discarded",
			"worktree", ev.WorktreePath)
		return
	}
	windowID := sub.windowID
	b.mu.Unlock()

	b.cache.InvalidateStatus(ev.WorktreePath)
	b.cache.InvalidateParsedDiff(ev.WorktreePath)

	deliver, ok := b.resolver.Resolve(windowID)
	if !ok {
		// Window vanished between subscribe and delivery; the
		// window-close hook unsubscribes shortly. Cache is already
		// invalidated, so dropping is safe.
		b.logger.Debug("window gone, event dropped",
			"worktree", ev.WorktreePath,
			"window", windowID)
		return
	}

	// Fire and forget: the next git-state change produces a fresh
	// event, and invalidation already happened.
	if err := deliver(ev); err != nil {
		b.logger.Warn("event delivery failed",
			"worktree", ev.WorktreePath,
			"window", windowID,
			"error", err)
	}
}

// lookupKey canonicalizes a worktree path for subscription lookup,
// falling back to a cleaned absolute path when the directory no
// longer resolves (deleted out from under a subscription).
func (b *bridge) lookupKey(worktreePath string) string {
	canonical, err := watcher.CanonicalWorktreePath(worktreePath)
	if err == nil {
		return canonical
	}

	abs, absErr := filepath.Abs(worktreePath)
	if absErr != nil {
		return filepath.Clean(worktreePath)
	}
	return abs
}
