package windows

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketWindowState = []byte("window_state") // WindowID -> (Key -> Value)
)

// boltStateStore implements StateStore using BoltDB. State for each
// window lives in a nested bucket keyed by the window identity, so
// DropWindow is a single bucket delete.
type boltStateStore struct {
	db *bolt.DB
	mu sync.RWMutex
}

// NewBoltStateStore opens (creating if needed) the window-state
// database at path.
//
// Parameters:
//   - path: BoltDB file location
//
// Returns:
//   - Configured StateStore
//   - Error if the database cannot be opened
func NewBoltStateStore(path string) (StateStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	// Initialize bucket.
	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketWindowState)
		return createErr
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to close database after init error: %w", closeErr)
		}
		return nil, fmt.Errorf("failed to create state bucket: %w", err)
	}

	return &boltStateStore{
		db: db,
	}, nil
}

// Get implements StateStore.Get.
func (s *boltStateStore) Get(id uuid.UUID, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		wb := tx.Bucket(bucketWindowState).Bucket(id[:])
		if wb == nil {
			return nil
		}

		data := wb.Get([]byte(key))
		if data == nil {
			return nil
		}

		value = make([]byte, len(data))
		copy(value, data)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return value, found, nil
}

// Put implements StateStore.Put.
func (s *boltStateStore) Put(id uuid.UUID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		wb, err := tx.Bucket(bucketWindowState).CreateBucketIfNotExists(id[:])
		if err != nil {
			return fmt.Errorf("failed to create window bucket: %w", err)
		}

		if putErr := wb.Put([]byte(key), value); putErr != nil {
			return fmt.Errorf("failed to store state: %w", putErr)
		}

		return nil
	})
}

// Delete implements StateStore.Delete.
func (s *boltStateStore) Delete(id uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		wb := tx.Bucket(bucketWindowState).Bucket(id[:])
		if wb == nil {
			return nil
		}
		return wb.Delete([]byte(key))
	})
}

// DropWindow implements StateStore.DropWindow.
func (s *boltStateStore) DropWindow(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWindowState)
		if b.Bucket(id[:]) == nil {
			return nil
		}
		return b.DeleteBucket(id[:])
	})
}

// Close implements StateStore.Close.
func (s *boltStateStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// memoryStateStore implements StateStore using in-memory maps.
// Useful for testing.
type memoryStateStore struct {
	mu    sync.RWMutex
	state map[uuid.UUID]map[string][]byte
}

// NewMemoryStateStore creates an in-memory state store.
//
// Returns a configured StateStore.
// Useful for testing or when persistence is not needed.
func NewMemoryStateStore() StateStore {
	return &memoryStateStore{
		state: make(map[uuid.UUID]map[string][]byte),
	}
}

// Get implements StateStore.Get.
func (s *memoryStateStore) Get(id uuid.UUID, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wb, ok := s.state[id]
	if !ok {
		return nil, false, nil
	}
	value, ok := wb[key]
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// Put implements StateStore.Put.
func (s *memoryStateStore) Put(id uuid.UUID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, ok := s.state[id]
	if !ok {
		wb = make(map[string][]byte)
		s.state[id] = wb
	}
	wb[key] = value
	return nil
}

// Delete implements StateStore.Delete.
func (s *memoryStateStore) Delete(id uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wb, ok := s.state[id]; ok {
		delete(wb, key)
	}
	return nil
}

// DropWindow implements StateStore.DropWindow.
func (s *memoryStateStore) DropWindow(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.state, id)
	return nil
}

// Close implements StateStore.Close.
func (s *memoryStateStore) Close() error {
	return nil
}
