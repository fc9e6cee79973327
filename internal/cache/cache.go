package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry is a stored payload with the time it was fetched. Entries are
// replaced wholesale, never mutated, so readers cannot observe a
// half-written record.
type entry[V any] struct {
	payload   V
	fetchedAt time.Time
}

// Store is a get-or-fetch cache with a fixed TTL. The TTL and clock are
// constructor-injected so independent instances (and tests with a simulated
// clock) stay isolated. Concurrent fetches for the same key are collapsed
// into a single upstream call.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
}

// New creates a Store with the given TTL. A zero TTL means entries never
// expire for the lifetime of the process.
func New[V any](ttl time.Duration) *Store[V] {
	return NewWithClock[V](ttl, time.Now)
}

// NewWithClock creates a Store that reads time from now instead of the wall
// clock.
func NewWithClock[V any](ttl time.Duration, now func() time.Time) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the live entry for key, if any.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || s.expired(e) {
		var zero V
		return zero, false
	}
	return e.payload, true
}

// GetOrFetch returns the live entry for key or calls fetcher to produce one.
// A failed fetch is never stored: the error is returned and any previously
// cached value is left intact for later calls.
func (s *Store[V]) GetOrFetch(ctx context.Context, key string, fetcher func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have filled the entry while this one
		// waited on the flight group.
		if v, ok := s.Get(key); ok {
			return v, nil
		}

		fetched, err := fetcher(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(key, fetched)
		return fetched, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Set stores payload under key with the current timestamp.
func (s *Store[V]) Set(key string, payload V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[V]{payload: payload, fetchedAt: s.now()}
}

// Invalidate removes the entry for key, forcing the next lookup to fetch.
func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Purge removes every entry.
func (s *Store[V]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry[V])
}

// Len returns the number of stored entries, expired ones included.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store[V]) expired(e entry[V]) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(e.fetchedAt) >= s.ttl
}
