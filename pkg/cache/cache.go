package cache

import (
	"sync"

	"github.com/0xmhha/gitwatch/pkg/logger"
)

// slot holds one invalidatable derived value.
type slot struct {
	value      interface{}
	present    bool
	generation uint64
}

// invalidate clears the slot. Returns true if the slot held a value.
func (s *slot) invalidate() bool {
	if !s.present {
		return false
	}
	s.value = nil
	s.present = false
	s.generation++
	return true
}

// set populates the slot.
func (s *slot) set(value interface{}) {
	s.value = value
	s.present = true
	s.generation++
}

// entry holds both slots for one worktree.
type entry struct {
	status     slot
	parsedDiff slot
}

// memoryCache implements the Cache interface with an in-memory map.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  logger.Logger
}

// New creates an empty cache.
func New(log logger.Logger) Cache {
	return &memoryCache{
		entries: make(map[string]*entry),
		logger:  log,
	}
}

// GetStatus implements Cache.GetStatus.
func (c *memoryCache) GetStatus(worktreePath string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[worktreePath]
	if !ok || !e.status.present {
		return nil, false
	}
	return e.status.value, true
}

// SetStatus implements Cache.SetStatus.
func (c *memoryCache) SetStatus(worktreePath string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.getOrCreate(worktreePath).status.set(value)
}

// GetParsedDiff implements Cache.GetParsedDiff.
func (c *memoryCache) GetParsedDiff(worktreePath string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[worktreePath]
	if !ok || !e.parsedDiff.present {
		return nil, false
	}
	return e.parsedDiff.value, true
}

// SetParsedDiff implements Cache.SetParsedDiff.
func (c *memoryCache) SetParsedDiff(worktreePath string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.getOrCreate(worktreePath).parsedDiff.set(value)
}

// InvalidateStatus implements Invalidator.InvalidateStatus.
func (c *memoryCache) InvalidateStatus(worktreePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[worktreePath]
	if !ok {
		// Never populated, nothing to do.
		return
	}

	if e.status.invalidate() {
		c.logger.Debug("status cache invalidated", "worktree", worktreePath)
	}
}

// InvalidateParsedDiff implements Invalidator.InvalidateParsedDiff.
func (c *memoryCache) InvalidateParsedDiff(worktreePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[worktreePath]
	if !ok {
		return
	}

	if e.parsedDiff.invalidate() {
		c.logger.Debug("parsed diff cache invalidated", "worktree", worktreePath)
	}
}

// StatusGeneration implements Cache.StatusGeneration.
func (c *memoryCache) StatusGeneration(worktreePath string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[worktreePath]
	if !ok {
		return 0
	}
	return e.status.generation
}

// getOrCreate returns the entry for a worktree, creating it if needed.
// Caller must hold c.mu.
func (c *memoryCache) getOrCreate(worktreePath string) *entry {
	e, ok := c.entries[worktreePath]
	if !ok {
		e = &entry{}
		c.entries[worktreePath] = e
	}
	return e
}
