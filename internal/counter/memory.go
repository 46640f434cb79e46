package counter

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value     int64
	expiresAt time.Time
}

// MemoryStore is an in-process Store used by tests and single-node
// setups. The mutex gives it the same atomicity guarantees the SQL
// store gets from single-statement updates.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) live(key string) *memoryEntry {
	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !entry.expiresAt.After(s.now()) {
		delete(s.entries, key)
		return nil
	}
	return entry
}

func (s *MemoryStore) Get(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(key)
	if entry == nil {
		return 0, nil
	}
	return entry.value, nil
}

func (s *MemoryStore) Increment(key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(key)
	if entry == nil {
		entry = &memoryEntry{expiresAt: s.now().Add(ttl)}
		s.entries[key] = entry
	}
	entry.value++
	return entry.value, nil
}

func (s *MemoryStore) IncrementIfBelow(key string, limit int64, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(key)
	if entry == nil {
		entry = &memoryEntry{expiresAt: s.now().Add(ttl)}
		s.entries[key] = entry
	}
	if entry.value >= limit {
		return false, nil
	}
	entry.value++
	return true, nil
}

func (s *MemoryStore) Decrement(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(key)
	if entry != nil && entry.value > 0 {
		entry.value--
	}
	return nil
}
