package storage

import "sync"

// MemoryStore implements Store in process memory.
// This is used when SKINSCAN_COOKIE_STORE=memory or as a fallback.
type MemoryStore struct {
	mu      sync.RWMutex
	cookies []Cookie
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the saved cookies.
func (s *MemoryStore) Load() ([]Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Cookie(nil), s.cookies...), nil
}

// Save replaces the saved cookies.
func (s *MemoryStore) Save(cookies []Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = append([]Cookie(nil), cookies...)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
