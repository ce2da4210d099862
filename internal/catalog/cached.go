package catalog

import (
	"context"
	"encoding/json"
	"sync"

	"catalog-cache/internal/cache"
	"catalog-cache/internal/common/logging"
)

// CachedCatalog is the cache-aside façade over the tiered cache engine and
// the source-of-truth provider. Reads try the cache first; on a miss the
// provider is called and the result populates both tiers. Provider errors
// propagate untouched — the cache layer never masks a genuine data-fetch
// failure as a miss.
type CachedCatalog struct {
	engine   *cache.Engine
	provider Provider
	logger   logging.Logger
}

// NewCachedCatalog creates the façade.
func NewCachedCatalog(engine *cache.Engine, provider Provider) *CachedCatalog {
	return &CachedCatalog{
		engine:   engine,
		provider: provider,
		logger:   logging.GetGlobalLogger().WithFields(logging.String("component", "catalog")),
	}
}

// GetCategoryAddons returns a category's addon groups, cache-aside.
func (c *CachedCatalog) GetCategoryAddons(ctx context.Context, categoryID int64) (*CategoryAddons, error) {
	key := CategoryAddonsKey(categoryID)

	if data, ok := c.engine.Read(ctx, key); ok {
		var cached CategoryAddons
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		// A malformed cached payload is a miss, never fatal.
		c.logger.Warn("discarding unparseable cache entry", logging.String("key", key))
	}

	result, err := c.provider.FetchCategoryAddons(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	c.populate(ctx, key, NamespaceCategory, result)
	return result, nil
}

// GetAddonGroups returns addon group listings matching filters, cache-aside.
func (c *CachedCatalog) GetAddonGroups(ctx context.Context, filters *GroupFilters) ([]AddonGroup, error) {
	key := AddonGroupsKey(filters)

	if data, ok := c.engine.Read(ctx, key); ok {
		var cached []AddonGroup
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("discarding unparseable cache entry", logging.String("key", key))
	}

	groups, err := c.provider.FetchAddonGroups(ctx, filters)
	if err != nil {
		return nil, err
	}

	c.populate(ctx, key, NamespaceAddonGroups, groups)
	return groups, nil
}

// populate writes a freshly loaded value to the cache with the namespace's
// configured TTL. Best-effort: a marshal failure only costs the cache entry.
func (c *CachedCatalog) populate(ctx context.Context, key, namespace string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to serialize value for caching",
			logging.String("key", key), logging.Err(err))
		return
	}
	c.engine.Write(ctx, key, data, c.engine.TTLFor(namespace))
}

// InvalidateCategory clears every cached key derived from the category and
// widens to the whole addon group listing namespace: a listing may embed
// the category's data, so per-category mutations over-invalidate by design,
// trading hit rate for correctness.
func (c *CachedCatalog) InvalidateCategory(ctx context.Context, categoryID int64) {
	c.engine.DeleteByPattern(ctx, CategoryPattern(categoryID))
	c.engine.DeleteByPattern(ctx, AddonGroupsPattern())
	c.logger.Info("invalidated category", logging.Int64("category_id", categoryID))
}

// InvalidateAll clears every namespace in both tiers.
func (c *CachedCatalog) InvalidateAll(ctx context.Context) {
	c.engine.DeleteByPattern(ctx, NamespaceCategory+":*")
	c.engine.DeleteByPattern(ctx, NamespaceAddonGroups+":*")
	c.engine.DeleteByPattern(ctx, NamespaceAddons+":*")
	c.logger.Info("invalidated all cached catalog data")
}

// WarmUp issues population reads for each category concurrently. Individual
// failures are logged and discarded so one bad identifier cannot abort the
// batch. Returns the number of categories successfully warmed.
func (c *CachedCatalog) WarmUp(ctx context.Context, categoryIDs []int64) int {
	var wg sync.WaitGroup
	var warmed int64
	var mu sync.Mutex

	for _, id := range categoryIDs {
		wg.Add(1)
		go func(categoryID int64) {
			defer wg.Done()
			if _, err := c.GetCategoryAddons(ctx, categoryID); err != nil {
				c.logger.Warn("warm-up failed for category",
					logging.Int64("category_id", categoryID), logging.Err(err))
				return
			}
			mu.Lock()
			warmed++
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	c.logger.Info("cache warm-up complete",
		logging.Int("requested", len(categoryIDs)), logging.Int64("warmed", warmed))
	return int(warmed)
}

// Stats reports cache statistics across both tiers.
func (c *CachedCatalog) Stats(ctx context.Context) *cache.Stats {
	return c.engine.Stats(ctx)
}

// Close shuts down the cache engine. Idempotent.
func (c *CachedCatalog) Close() error {
	return c.engine.Close()
}
