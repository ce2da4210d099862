// Package cache composes the remote and in-process tiers into a single
// read/write/invalidate contract. The remote tier is preferred when
// connected; the memory tier is the fallback that keeps reads working when
// the remote drops. Tier failures are logged, never raised.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"catalog-cache/internal/common/logging"
	"catalog-cache/internal/memcache"
	"catalog-cache/internal/redis"
)

// Config holds the engine's TTL policy and global switch.
type Config struct {
	// Enabled toggles the whole subsystem. When false every read is a miss
	// and every write is a no-op, so callers always hit the source of truth.
	Enabled bool

	// TTLs maps a key namespace to its expiry. Namespaces absent from the
	// map get DefaultTTL.
	TTLs map[string]time.Duration

	// DefaultTTL applies to namespaces without an explicit TTL.
	DefaultTTL time.Duration
}

// Stats is a point-in-time report over both tiers.
type Stats struct {
	Enabled           bool     `json:"enabled"`
	MemoryEntries     int      `json:"memory_entries"`
	MemoryKeys        []string `json:"memory_keys"`
	RemoteConfigured  bool     `json:"remote_configured"`
	RemoteConnected   bool     `json:"remote_connected"`
	RemoteState       string   `json:"remote_state,omitempty"`
	RemoteMemoryUsage string   `json:"remote_memory_usage,omitempty"`
}

// Engine orchestrates the tier fallback chain. remote may be nil, in which
// case only the memory tier is active.
type Engine struct {
	remote    *redis.Client
	memory    *memcache.Store
	config    *Config
	logger    logging.Logger
	closeOnce sync.Once
}

// New creates an engine over the given tiers. remote may be nil.
func New(remote *redis.Client, memory *memcache.Store, config *Config) *Engine {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	return &Engine{
		remote: remote,
		memory: memory,
		config: config,
		logger: logging.GetGlobalLogger().WithFields(logging.String("component", "cache-engine")),
	}
}

// Enabled reports whether the cache subsystem is active.
func (e *Engine) Enabled() bool {
	return e.config.Enabled
}

// TTLFor returns the expiry for a key namespace.
func (e *Engine) TTLFor(namespace string) time.Duration {
	if ttl, ok := e.config.TTLs[namespace]; ok {
		return ttl
	}
	return e.config.DefaultTTL
}

// Read tries the remote tier first when it is connected; a remote hit is
// authoritative and the memory tier is not consulted. On a remote miss or an
// unreachable remote it falls through to the memory tier.
func (e *Engine) Read(ctx context.Context, key string) ([]byte, bool) {
	if !e.config.Enabled {
		return nil, false
	}

	if e.remote != nil && e.remote.Connected() {
		if value, ok := e.remote.Get(ctx, key); ok {
			return []byte(value), true
		}
	}

	return e.memory.Get(key)
}

// Write stores the value in the memory tier unconditionally, so reads keep
// working if the remote drops later, and additionally in the remote tier
// when connected. Both writes are best-effort.
func (e *Engine) Write(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !e.config.Enabled {
		return
	}

	e.memory.Set(key, value, ttl)

	if e.remote != nil && e.remote.Connected() {
		if !e.remote.SetWithTTL(ctx, key, string(value), ttl) {
			e.logger.Debug("remote write failed, memory tier holds the value",
				logging.String("key", key))
		}
	}
}

// Delete removes the key from both tiers regardless of connectivity; the
// memory delete is cheap even when the key was never cached there.
func (e *Engine) Delete(ctx context.Context, key string) {
	if !e.config.Enabled {
		return
	}

	if e.remote != nil {
		e.remote.Delete(ctx, key)
	}
	e.memory.Delete(key)
}

// DeleteByPattern invalidates a namespace-scoped wildcard. The remote tier
// handles enumeration and bulk delete when connected; the memory tier is
// always scanned with the wildcard stripped, so local data cannot go stale
// while the remote is down.
func (e *Engine) DeleteByPattern(ctx context.Context, pattern string) {
	if !e.config.Enabled {
		return
	}

	if e.remote != nil && e.remote.Connected() {
		removed := e.remote.DeleteByPattern(ctx, pattern)
		if removed > 0 {
			e.logger.Debug("remote pattern invalidation",
				logging.String("pattern", pattern), logging.Int("removed", removed))
		}
	}

	e.memory.DeletePattern(strings.TrimSuffix(pattern, "*"))
}

// Stats reports memory tier contents and remote connectivity. Remote
// introspection is best-effort and never fails the caller.
func (e *Engine) Stats(ctx context.Context) *Stats {
	stats := &Stats{
		Enabled:       e.config.Enabled,
		MemoryEntries: e.memory.Len(),
		MemoryKeys:    e.memory.Keys(),
	}

	if e.remote != nil {
		stats.RemoteConfigured = true
		stats.RemoteConnected = e.remote.Connected()
		stats.RemoteState = e.remote.State().String()
		if usage, ok := e.remote.MemoryUsage(ctx); ok {
			stats.RemoteMemoryUsage = usage
		}
	}

	return stats
}

// Close shuts the engine down: the remote connection is closed if open and
// the memory tier is cleared. Idempotent.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.remote != nil {
			err = e.remote.Close()
		}
		e.memory.Clear()
	})
	return err
}
