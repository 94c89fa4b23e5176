package state

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value   T
	touched time.Time
}

// Store maps user ids to sessions of type T. It is safe for concurrent use;
// callers that mutate a session value in place must synchronize on their own.
type Store[T any] struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[int64]*entry[T]
}

// NewStore returns an empty store using now as its clock. A nil now selects time.Now.
func NewStore[T any](now func() time.Time) *Store[T] {
	if now == nil {
		now = time.Now
	}
	return &Store[T]{now: now, entries: make(map[int64]*entry[T])}
}

// Put stores value for userID, replacing any existing session.
func (s *Store[T]) Put(userID int64, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = &entry[T]{value: value, touched: s.now()}
}

// Get returns the session for userID without refreshing its idle timer.
func (s *Store[T]) Get(userID int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[userID]; ok {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Touch returns the session for userID and marks it as active now.
func (s *Store[T]) Touch(userID int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[userID]; ok {
		e.touched = s.now()
		return e.value, true
	}
	var zero T
	return zero, false
}

// CompareAndDelete removes the session for userID only when match accepts it.
func (s *Store[T]) CompareAndDelete(userID int64, match func(T) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok || !match(e.value) {
		return false
	}
	delete(s.entries, userID)
	return true
}

// Len returns the number of live sessions.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// EvictIdle removes sessions untouched for at least idle and returns their values.
func (s *Store[T]) EvictIdle(idle time.Duration) map[int64]T {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	evicted := make(map[int64]T)
	for id, e := range s.entries {
		if !e.touched.After(cutoff) {
			evicted[id] = e.value
			delete(s.entries, id)
		}
	}
	return evicted
}
