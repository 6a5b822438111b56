// Package cache holds the tables loaded from the data directory and the
// short-lived statistics computed from them.
package cache

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	mtime time.Time
	value interface{}
}

// Store caches one value per source, tied to the modification time of the file
// it was loaded from. It is created once and shared by every request.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	loads   singleflight.Group

	ttl      gcache.Cache
	ttlLoads singleflight.Group
}

// NewStore creates a store whose derived values expire after ttl
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{
		entries: make(map[string]entry),
		ttl:     gcache.New(256).LRU().Expiration(ttl).Build(),
	}
}

// InvalidateIfStale drops the entry of source when it was loaded from a file
// with a different modification time, and reports whether it did. Derived
// values are dropped with it.
func (s *Store) InvalidateIfStale(source string, mtime time.Time) bool {
	s.mu.Lock()
	e, ok := s.entries[source]
	stale := ok && !e.mtime.Equal(mtime)
	if stale {
		delete(s.entries, source)
	}
	s.mu.Unlock()

	if stale {
		s.ttl.Purge()
	}
	return stale
}

func (s *Store) lookup(source string) (entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[source]
	return e, ok
}

func (s *Store) put(source string, e entry) {
	s.mu.Lock()
	s.entries[source] = e
	s.mu.Unlock()
}

// Clear empties the store
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
	s.ttl.Purge()
}

// Len returns the number of cached sources
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Load returns the cached value of the file at path, loading it with load when
// absent or when the file changed since. Concurrent misses on the same path
// share one load.
func Load[T any](s *Store, path string, load func(path string) (T, error)) (T, error) {
	var zero T

	info, err := os.Stat(path)
	if err != nil {
		return zero, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	mtime := info.ModTime()

	s.InvalidateIfStale(path, mtime)
	if e, ok := s.lookup(path); ok {
		if v, ok := e.value.(T); ok {
			return v, nil
		}
		return zero, fmt.Errorf("cache: %s holds %T", path, e.value)
	}

	v, err, _ := s.loads.Do(path, func() (interface{}, error) {
		value, err := load(path)
		if err != nil {
			return nil, err
		}
		s.put(path, entry{mtime: mtime, value: value})
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Remember returns the value computed by fn for key, keeping it until the TTL
// elapses or a source changes
func Remember[T any](s *Store, key string, fn func() (T, error)) (T, error) {
	var zero T

	if v, err := s.ttl.Get(key); err == nil {
		return v.(T), nil
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		return zero, err
	}

	v, err, _ := s.ttlLoads.Do(key, func() (interface{}, error) {
		value, err := fn()
		if err != nil {
			return nil, err
		}
		if err := s.ttl.Set(key, value); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
