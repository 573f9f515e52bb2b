package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Size returns the number of keys written and not yet deleted
	Size() int
}

// Store is a Cache backed by ristretto. Every entry costs 1, so maxItems
// bounds the number of entries. Written keys are tracked so the whole store
// can be dropped at once.
type Store[T any] struct {
	cache *ristretto.Cache[string, T]
	ttl   time.Duration

	mu   sync.RWMutex
	keys map[string]struct{}
}

var _ Cache[int] = (*Store[int])(nil)

// NewStore creates a store holding at most maxItems entries for ttl each.
// A zero ttl keeps entries until evicted.
func NewStore[T any](maxItems int64, ttl time.Duration) (*Store[T], error) {
	if maxItems < 1 {
		maxItems = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, T]{
		NumCounters:        maxItems * 10, // ristretto recommends 10x the expected entries
		MaxCost:            maxItems,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Store[T]{cache: c, ttl: ttl, keys: make(map[string]struct{})}, nil
}

func (s *Store[T]) Get(key string) (T, bool) {
	return s.cache.Get(key)
}

// Set stores data and waits for the write to become visible. The admission
// policy may still reject the entry, in which case the key is not tracked.
func (s *Store[T]) Set(key string, data T) {
	if !s.cache.SetWithTTL(key, data, 1, s.ttl) {
		return
	}
	s.cache.Wait()
	s.mu.Lock()
	s.keys[key] = struct{}{}
	s.mu.Unlock()
}

func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
	s.cache.Del(key)
}

func (s *Store[T]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Clear removes every tracked key.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	for key := range s.keys {
		s.cache.Del(key)
	}
	s.keys = make(map[string]struct{})
	s.mu.Unlock()
}

// Close stops ristretto's background goroutines. The store must not be used afterwards.
func (s *Store[T]) Close() {
	s.cache.Close()
}

// Clearer is implemented by caches that can be dropped wholesale.
type Clearer interface {
	Clear()
}

// ClearFunc adapts a function to Clearer.
type ClearFunc func()

func (f ClearFunc) Clear() { f() }

// Manager groups caches that go stale together, so a single write to the
// ledger can invalidate all of them. Every invalidation bumps a generation
// counter; loaders read it before loading and store through StoreIfCurrent
// so a result loaded before a write is never cached after it.
type Manager struct {
	mu         sync.Mutex
	caches     []Clearer
	generation uint64
}

func NewManager() *Manager {
	return &Manager{}
}

// Register adds a cache to the invalidation group
func (m *Manager) Register(c Clearer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// InvalidateAll clears every registered cache. A nil manager is a no-op.
func (m *Manager) InvalidateAll() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	for _, c := range m.caches {
		c.Clear()
	}
}

// Generation returns the number of invalidations so far. A nil manager is always at 0.
func (m *Manager) Generation() uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// StoreIfCurrent runs store only if no invalidation happened since gen was
// read, and reports whether it ran. The check and store are atomic with
// respect to InvalidateAll. A nil manager always runs store.
func (m *Manager) StoreIfCurrent(gen uint64, store func()) bool {
	if m == nil {
		store()
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return false
	}
	store()
	return true
}
