package hsmx

import (
	"maps"
	"sync"
)

// Store is a thread-safe key/value bag for extended state, meant to be passed
// to Initialize as the machine's owner when states share loosely typed data.
// Machines owned by a Store surface its contents in Snapshot as OwnerData.
// Applications with a richer shared context should define their own owner
// type instead.
type Store struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string]any)}
}

// Get returns the value for key, or nil when absent.
func (s *Store) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key]
}

// Set stores value under key.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// GetAll returns a copy of the contents, decoupled from later writes. This is
// what Snapshot records as OwnerData.
func (s *Store) GetAll() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data)
}

// LoadAll replaces the contents wholesale, e.g. to seed a new machine's owner
// from a decoded snapshot's OwnerData.
func (s *Store) LoadAll(data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = maps.Clone(data)
}
