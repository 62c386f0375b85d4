package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/gitwatch/pkg/cache"
	"github.com/0xmhha/gitwatch/pkg/logger"
	"github.com/0xmhha/gitwatch/pkg/watcher"
	"github.com/0xmhha/gitwatch/pkg/windows"
)

// harness wires a real registry, cache, and window hub to a bridge.
type harness struct {
	registry watcher.Registry
	cache    cache.Cache
	hub      windows.Hub
	bridge   Bridge
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	reg := watcher.NewRegistry(watcher.Config{CoalesceWindow: 50 * time.Millisecond}, logger.Noop())
	c := cache.New(logger.Noop())
	hub := windows.NewHub(logger.Noop())
	b := New(reg, c, hub, logger.Noop())

	hub.OnDestroyed(b.WindowClosed)

	t.Cleanup(func() {
		if err := b.Shutdown(context.Background()); err != nil {
			t.Logf("Shutdown() error = %v", err)
		}
	})

	return &harness{registry: reg, cache: c, hub: hub, bridge: b}
}

// addWindow registers a window whose deliveries land on the returned
// channel.
func (h *harness) addWindow(t *testing.T) (uuid.UUID, chan watcher.Event) {
	t.Helper()

	id := uuid.New()
	events := make(chan watcher.Event, 8)
	require.NoError(t, h.hub.Register(id, func(ev watcher.Event) error {
		events <- ev
		return nil
	}))
	return id, events
}

func makeWorktree(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.Mkdir(gitDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "index"), []byte("DIRC"), 0644))
	return dir
}

func touchIndex(t *testing.T, worktree string) {
	t.Helper()

	path := filepath.Join(worktree, ".git", "index")
	require.NoError(t, os.WriteFile(path, []byte(time.Now().String()), 0644))
}

func waitEvent(t *testing.T, ch <-chan watcher.Event) watcher.Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return watcher.Event{}
	}
}

func expectSilence(t *testing.T, ch <-chan watcher.Event, window time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(window):
	}
}

func TestSubscribeAndDeliver(t *testing.T) {
	h := newHarness(t)
	worktree := makeWorktree(t)
	windowID, events := h.addWindow(t)

	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowID, worktree))
	assert.True(t, h.bridge.Subscribed(worktree))

	touchIndex(t, worktree)

	ev := waitEvent(t, events)
	canonical, err := watcher.CanonicalWorktreePath(worktree)
	require.NoError(t, err)
	assert.Equal(t, canonical, ev.WorktreePath)
	assert.Equal(t, []string{watcher.SubPathIndex}, ev.Changed)
}

func TestInvalidateBeforeDeliver(t *testing.T) {
	h := newHarness(t)
	worktree := makeWorktree(t)
	canonical, err := watcher.CanonicalWorktreePath(worktree)
	require.NoError(t, err)

	// Pre-populate both slots with values that would be stale after
	// the git operation.
	h.cache.SetStatus(canonical, "stale-status")
	h.cache.SetParsedDiff(canonical, "stale-diff")

	windowID := uuid.New()
	observed := make(chan bool, 1)
	require.NoError(t, h.hub.Register(windowID, func(ev watcher.Event) error {
		// What the window sees when it asks for status right after
		// receiving the event: never the pre-event value.
		_, statusOK := h.cache.GetStatus(ev.WorktreePath)
		_, diffOK := h.cache.GetParsedDiff(ev.WorktreePath)
		observed <- statusOK || diffOK
		return nil
	}))

	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowID, worktree))

	touchIndex(t, worktree)

	select {
	case stale := <-observed:
		assert.False(t, stale, "stale cache value observable after event delivery")
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestRoutingIsolation(t *testing.T) {
	h := newHarness(t)
	worktreeA := makeWorktree(t)
	worktreeB := makeWorktree(t)
	windowA, eventsA := h.addWindow(t)
	windowB, eventsB := h.addWindow(t)

	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowA, worktreeA))
	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowB, worktreeB))

	touchIndex(t, worktreeA)

	waitEvent(t, eventsA)
	expectSilence(t, eventsB, 300*time.Millisecond)
}

func TestDeliveryIgnoresLaterWindows(t *testing.T) {
	h := newHarness(t)
	worktree := makeWorktree(t)
	windowA, eventsA := h.addWindow(t)

	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowA, worktree))

	// Another window appears afterwards (e.g. gains focus). Events
	// still route to the identity recorded at subscribe time.
	_, eventsB := h.addWindow(t)

	touchIndex(t, worktree)

	waitEvent(t, eventsA)
	expectSilence(t, eventsB, 300*time.Millisecond)
}

func TestDuplicateSubscribeIsNoop(t *testing.T) {
	h := newHarness(t)
	worktree := makeWorktree(t)
	windowA, eventsA := h.addWindow(t)
	windowB, eventsB := h.addWindow(t)

	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowA, worktree))

	// Second subscribe for the same worktree, even from another
	// window, changes nothing.
	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowB, worktree))

	touchIndex(t, worktree)

	waitEvent(t, eventsA)
	expectSilence(t, eventsA, 300*time.Millisecond)
	expectSilence(t, eventsB, 50*time.Millisecond)
}

func TestSubscribeWindowAlreadyGone(t *testing.T) {
	h := newHarness(t)
	worktree := makeWorktree(t)

	// Identity that was never registered (window destroyed between
	// request and handling). Abandoned, not an error, no listener.
	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), uuid.New(), worktree))
	assert.False(t, h.bridge.Subscribed(worktree))
}

func TestSubscribeWatchOpenFailure(t *testing.T) {
	h := newHarness(t)
	windowID, _ := h.addWindow(t)

	// Not a worktree: surfaced to the caller, nothing recorded.
	dir := t.TempDir()
	err := h.bridge.HandleSubscribe(context.Background(), windowID, dir)
	assert.ErrorIs(t, err, watcher.ErrNotAWorktree)
	assert.False(t, h.bridge.Subscribed(dir))
}

func TestHandleUnsubscribe(t *testing.T) {
	h := newHarness(t)
	worktree := makeWorktree(t)
	windowID, events := h.addWindow(t)

	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowID, worktree))

	h.bridge.HandleUnsubscribe(worktree)
	assert.False(t, h.bridge.Subscribed(worktree))

	touchIndex(t, worktree)
	expectSilence(t, events, 300*time.Millisecond)

	// Unsubscribing again, or a never-subscribed path, is a no-op.
	h.bridge.HandleUnsubscribe(worktree)
	h.bridge.HandleUnsubscribe(makeWorktree(t))
}

func TestWindowClosedReleasesSubscriptions(t *testing.T) {
	h := newHarness(t)
	worktreeA := makeWorktree(t)
	worktreeB := makeWorktree(t)
	windowID, events := h.addWindow(t)
	other, eventsOther := h.addWindow(t)

	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowID, worktreeA))
	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), other, worktreeB))

	// Destroying the window tears down its subscriptions through the
	// hub's destroyed hook.
	h.hub.Unregister(windowID)

	assert.False(t, h.bridge.Subscribed(worktreeA))
	assert.True(t, h.bridge.Subscribed(worktreeB))

	touchIndex(t, worktreeA)
	expectSilence(t, events, 300*time.Millisecond)

	// The other window is untouched.
	touchIndex(t, worktreeB)
	waitEvent(t, eventsOther)
}

func TestWindowCloseFreesWatchForReuse(t *testing.T) {
	h := newHarness(t)
	worktree := makeWorktree(t)
	windowID, _ := h.addWindow(t)

	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowID, worktree))
	h.hub.Unregister(windowID)

	// The watch was released: a fresh subscribe succeeds as a
	// first-time open and events flow again.
	replacement, events := h.addWindow(t)
	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), replacement, worktree))

	touchIndex(t, worktree)
	waitEvent(t, events)
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	h := newHarness(t)
	worktree := makeWorktree(t)

	windowID := uuid.New()
	attempts := make(chan struct{}, 8)
	require.NoError(t, h.hub.Register(windowID, func(watcher.Event) error {
		attempts <- struct{}{}
		return errors.New("transport broken")
	}))

	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowID, worktree))

	touchIndex(t, worktree)
	select {
	case <-attempts:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for delivery attempt")
	}

	// A failed delivery is never retried, but the subscription stays
	// live and the next change produces a fresh attempt.
	assert.True(t, h.bridge.Subscribed(worktree))

	touchIndex(t, worktree)
	select {
	case <-attempts:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for second delivery attempt")
	}
}

func TestShutdown(t *testing.T) {
	h := newHarness(t)
	worktree := makeWorktree(t)
	windowID, events := h.addWindow(t)

	require.NoError(t, h.bridge.HandleSubscribe(context.Background(), windowID, worktree))

	require.NoError(t, h.bridge.Shutdown(context.Background()))

	// Zero watches remain: a change on a previously-watched worktree
	// delivers nothing.
	touchIndex(t, worktree)
	expectSilence(t, events, 300*time.Millisecond)

	// Further subscribes are refused; repeat shutdown is a no-op.
	err := h.bridge.HandleSubscribe(context.Background(), windowID, worktree)
	assert.ErrorIs(t, err, ErrBridgeShutdown)
	require.NoError(t, h.bridge.Shutdown(context.Background()))
}
