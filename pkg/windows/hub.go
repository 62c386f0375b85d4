package windows

import (
	"sync"

	"github.com/google/uuid"

	"github.com/0xmhha/gitwatch/pkg/logger"
)

// hub implements the Hub interface with an in-memory map.
type hub struct {
	logger logger.Logger

	mu      sync.RWMutex
	windows map[uuid.UUID]DeliverFunc
	hooks   []DestroyedHook
}

// NewHub creates an empty window hub.
func NewHub(log logger.Logger) Hub {
	return &hub{
		logger:  log,
		windows: make(map[uuid.UUID]DeliverFunc),
	}
}

// Register implements Hub.Register.
func (h *hub) Register(id uuid.UUID, deliver DeliverFunc) error {
	if deliver == nil {
		return ErrNilDeliver
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.windows[id]; exists {
		return ErrAlreadyRegistered
	}
	h.windows[id] = deliver

	h.logger.Info("window registered", "window", id)
	return nil
}

// Unregister implements Hub.Unregister.
func (h *hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	if _, exists := h.windows[id]; !exists {
		h.mu.Unlock()
		return
	}
	delete(h.windows, id)
	hooks := make([]DestroyedHook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	h.logger.Info("window destroyed", "window", id)

	// Hooks run outside the lock so they may call back into the hub.
	for _, hook := range hooks {
		hook(id)
	}
}

// Resolve implements Hub.Resolve.
func (h *hub) Resolve(id uuid.UUID) (DeliverFunc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver, ok := h.windows[id]
	return deliver, ok
}

// OnDestroyed implements Hub.OnDestroyed.
func (h *hub) OnDestroyed(hook DestroyedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hooks = append(h.hooks, hook)
}
