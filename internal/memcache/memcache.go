// Package memcache implements the in-process cache tier. It is the last
// resort of the fallback chain: a bounded, expiring map that keeps reads
// working when the remote tier is unreachable.
package memcache

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultMaxEntries is the entry ceiling that triggers an expired-entry sweep.
const DefaultMaxEntries = 1000

// Store is a bounded, expiring key-value store. Values are each tier's own
// serialized copy; entries are never shared with the remote tier.
//
// Expiry is lazy: an expired entry is treated as a miss on read. There is no
// janitor goroutine; the only bulk cleanup is a full expired-entry sweep when
// a Set pushes the entry count past the ceiling. No LRU or size-based
// eviction beyond that.
type Store struct {
	cache      *gocache.Cache
	maxEntries int
	mu         sync.Mutex // guards the over-ceiling sweep
}

// New creates a memory store with the given entry ceiling. A non-positive
// ceiling falls back to DefaultMaxEntries.
func New(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		// No default expiration and no cleanup interval: every entry
		// carries its own TTL and cleanup is sweep-on-demand.
		cache:      gocache.New(gocache.NoExpiration, 0),
		maxEntries: maxEntries,
	}
}

// Get returns the stored value if present and unexpired, else a miss.
func (s *Store) Get(key string) ([]byte, bool) {
	value, found := s.cache.Get(key)
	if !found {
		return nil, false
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, false
	}
	return data, true
}

// Set stores value under key for ttl. If the store now exceeds its entry
// ceiling, every already-expired entry is swept out.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	s.cache.Set(key, value, ttl)

	if s.cache.ItemCount() > s.maxEntries {
		s.mu.Lock()
		if s.cache.ItemCount() > s.maxEntries {
			s.cache.DeleteExpired()
		}
		s.mu.Unlock()
	}
}

// Delete removes a single entry. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) {
	s.cache.Delete(key)
}

// DeletePattern removes every entry whose key contains substr. This is a
// plain substring scan, not a glob matcher; callers strip any trailing
// wildcard before calling.
func (s *Store) DeletePattern(substr string) int {
	removed := 0
	for key := range s.cache.Items() {
		if strings.Contains(key, substr) {
			s.cache.Delete(key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.cache.Flush()
}

// Keys returns the unexpired keys currently in the store.
func (s *Store) Keys() []string {
	items := s.cache.Items()
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of entries, including not-yet-swept expired ones.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
