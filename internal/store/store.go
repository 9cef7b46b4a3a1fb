// Package store holds the process-wide map of last observed values,
// keyed by (watcher ID, subject). It is the only channel for
// cross-watcher reads: dependency gates and ${store.<id>.<subject>}
// placeholders both resolve through it. Entries live for the process
// lifetime; there is no eviction and nothing is persisted.
package store

import "sync"

// Store is safe for concurrent use. Reads dominate (every dependency
// check and store placeholder), so it uses a reader-writer lock.
type Store struct {
	mu sync.RWMutex
	m  map[string]map[string]any
}

// New returns an empty store.
func New() *Store {
	return &Store{m: make(map[string]map[string]any)}
}

// Update upserts the value a watcher observed for a subject.
func (s *Store) Update(watcherID, subject string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.m[watcherID]
	if !ok {
		sub = make(map[string]any)
		s.m[watcherID] = sub
	}
	sub[subject] = v
}

// Get returns the last value recorded for (watcherID, subject). The
// second return is false when nothing has been recorded.
func (s *Store) Get(watcherID, subject string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.m[watcherID]
	if !ok {
		return nil, false
	}
	v, ok := sub[subject]
	return v, ok
}
