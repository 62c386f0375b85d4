package windows

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/gitwatch/pkg/logger"
	"github.com/0xmhha/gitwatch/pkg/watcher"
)

func TestRegisterResolve(t *testing.T) {
	h := NewHub(logger.Noop())
	id := uuid.New()

	var delivered []watcher.Event
	err := h.Register(id, func(ev watcher.Event) error {
		delivered = append(delivered, ev)
		return nil
	})
	require.NoError(t, err)

	deliver, ok := h.Resolve(id)
	require.True(t, ok)

	require.NoError(t, deliver(watcher.Event{WorktreePath: "/repo"}))
	require.Len(t, delivered, 1)
	assert.Equal(t, "/repo", delivered[0].WorktreePath)
}

func TestRegisterDuplicate(t *testing.T) {
	h := NewHub(logger.Noop())
	id := uuid.New()

	noop := func(watcher.Event) error { return nil }
	require.NoError(t, h.Register(id, noop))
	assert.ErrorIs(t, h.Register(id, noop), ErrAlreadyRegistered)
}

func TestRegisterNilDeliver(t *testing.T) {
	h := NewHub(logger.Noop())
	assert.ErrorIs(t, h.Register(uuid.New(), nil), ErrNilDeliver)
}

func TestResolveUnknown(t *testing.T) {
	h := NewHub(logger.Noop())

	_, ok := h.Resolve(uuid.New())
	assert.False(t, ok)
}

func TestUnregisterFiresHooks(t *testing.T) {
	h := NewHub(logger.Noop())
	id := uuid.New()

	var destroyed []uuid.UUID
	h.OnDestroyed(func(gone uuid.UUID) {
		destroyed = append(destroyed, gone)
	})

	require.NoError(t, h.Register(id, func(watcher.Event) error { return nil }))
	h.Unregister(id)

	require.Len(t, destroyed, 1)
	assert.Equal(t, id, destroyed[0])

	_, ok := h.Resolve(id)
	assert.False(t, ok)
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	h := NewHub(logger.Noop())

	fired := false
	h.OnDestroyed(func(uuid.UUID) { fired = true })

	h.Unregister(uuid.New())
	assert.False(t, fired, "hook fired for a window that was never registered")
}

func TestHookMayCallBackIntoHub(t *testing.T) {
	h := NewHub(logger.Noop())
	id := uuid.New()

	h.OnDestroyed(func(gone uuid.UUID) {
		// Tear-down code resolves other windows while handling the
		// notification; this must not deadlock.
		_, _ = h.Resolve(gone)
	})

	require.NoError(t, h.Register(id, func(watcher.Event) error { return nil }))
	h.Unregister(id)
}
