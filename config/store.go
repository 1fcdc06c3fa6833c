package config

import (
	"sync"
	"sync/atomic"
)

// Store holds the current configuration with atomic read/swap semantics.
// The dispatch loop and the diagnostics path read it concurrently; swaps
// come from file reloads and editor settings pushes.
type Store struct {
	value atomic.Pointer[Config]

	mu        sync.RWMutex
	listeners []func(old, updated *Config)
}

// NewStore creates a store with the given initial value.
func NewStore(initial Config) *Store {
	s := &Store{}
	s.value.Store(&initial)
	return s
}

// Get returns the current snapshot (zero-lock read). Callers must not
// mutate it.
func (s *Store) Get() *Config {
	return s.value.Load()
}

// Swap atomically replaces the config and notifies listeners in
// registration order.
func (s *Store) Swap(updated Config) {
	old := s.value.Swap(&updated)

	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(old, &updated)
	}
}

// OnChange registers a listener called on every swap.
func (s *Store) OnChange(fn func(old, updated *Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
