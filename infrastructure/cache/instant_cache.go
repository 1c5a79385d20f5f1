package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"movie-hub/domain/model"
	"movie-hub/domain/repository"
	"movie-hub/infrastructure/logger"
)

type memEntry struct {
	entry     model.CacheEntry
	expiresAt time.Time
}

type memItem struct {
	movie     model.NormalizedMovie
	expiresAt time.Time
}

// InstantCache is the two-tier read-through cache: an in-process map in
// front of the persistent document store. The store being down degrades
// every operation to memory-only; callers never see an error.
type InstantCache struct {
	mu      sync.RWMutex
	entries map[string]*memEntry
	items   map[string]*memItem

	store      repository.IMovieStore
	memTTL     time.Duration
	persistTTL time.Duration
	maxAge     time.Duration

	hits       atomic.Int64
	misses     atomic.Int64
	promotions atomic.Int64
	storeUp    atomic.Bool
}

func NewInstantCache(store repository.IMovieStore, memTTL, persistTTL, maxAge time.Duration) *InstantCache {
	c := &InstantCache{
		entries:    make(map[string]*memEntry),
		items:      make(map[string]*memItem),
		store:      store,
		memTTL:     memTTL,
		persistTTL: persistTTL,
		maxAge:     maxAge,
	}
	c.storeUp.Store(store != nil)
	return c
}

// Get checks the memory tier first, then the persistent tier. Persistent
// hits still inside their TTL are promoted into memory.
func (c *InstantCache) Get(ctx context.Context, query string, limit int) ([]model.NormalizedMovie, bool) {
	fp := Fingerprint(query, limit)
	now := time.Now().UTC()

	c.mu.RLock()
	me, ok := c.entries[fp]
	c.mu.RUnlock()
	if ok {
		// A promoted entry can reach its own TTL before the memory
		// expiry does; both must hold for the hit to be served.
		if now.Before(me.expiresAt) && me.entry.Fresh(now) {
			c.hits.Add(1)
			c.mu.Lock()
			if cur, live := c.entries[fp]; live {
				cur.entry.HitCount++
			}
			c.mu.Unlock()
			return me.entry.Results, true
		}
		// Stale memory entry: drop it and fall through to the store.
		c.mu.Lock()
		delete(c.entries, fp)
		c.mu.Unlock()
	}

	entry, err := c.store.GetSearch(ctx, fp)
	if err != nil {
		c.warnStore(err)
		c.misses.Add(1)
		return nil, false
	}
	c.storeUp.Store(true)
	if entry == nil || !entry.Fresh(now) {
		c.misses.Add(1)
		return nil, false
	}

	c.promotions.Add(1)
	c.hits.Add(1)
	c.mu.Lock()
	c.entries[fp] = &memEntry{entry: *entry, expiresAt: now.Add(c.memTTL)}
	c.mu.Unlock()
	return entry.Results, true
}

// Set writes through to both tiers and indexes every result by id.
func (c *InstantCache) Set(ctx context.Context, query string, limit int, results []model.NormalizedMovie) {
	if len(results) == 0 {
		return
	}
	fp := Fingerprint(query, limit)
	now := time.Now().UTC()

	entry := model.CacheEntry{
		Fingerprint: fp,
		Results:     results,
		StoredAt:    now,
		TTL:         c.persistTTL,
	}

	c.mu.Lock()
	c.entries[fp] = &memEntry{entry: entry, expiresAt: now.Add(c.memTTL)}
	for i := range results {
		if results[i].ID != "" {
			c.items[results[i].ID] = &memItem{movie: results[i], expiresAt: now.Add(c.memTTL)}
		}
	}
	c.mu.Unlock()

	if err := c.store.PutSearch(ctx, &entry); err != nil {
		c.warnStore(err)
		return
	}
	c.storeUp.Store(true)
	if err := c.store.PutItems(ctx, results); err != nil {
		c.warnStore(err)
	}
}

// GetByID resolves a single movie, memory tier first. A persistent hit
// bumps the popularity counter feeding the trending scanner.
func (c *InstantCache) GetByID(ctx context.Context, id string) (*model.NormalizedMovie, bool) {
	now := time.Now().UTC()
	c.mu.RLock()
	it, ok := c.items[id]
	c.mu.RUnlock()
	if ok && now.Before(it.expiresAt) {
		c.hits.Add(1)
		movie := it.movie
		return &movie, true
	}

	movie, err := c.store.GetItem(ctx, id)
	if err != nil {
		c.warnStore(err)
		c.misses.Add(1)
		return nil, false
	}
	c.storeUp.Store(true)
	if movie == nil {
		c.misses.Add(1)
		return nil, false
	}
	if err := c.store.IncrementPopularity(ctx, id); err != nil {
		c.warnStore(err)
	}

	c.hits.Add(1)
	c.mu.Lock()
	c.items[id] = &memItem{movie: *movie, expiresAt: now.Add(c.memTTL)}
	c.mu.Unlock()
	return movie, true
}

// Sweep drops expired memory entries and purges persistent rows older
// than the retention window.
func (c *InstantCache) Sweep(ctx context.Context) (int, int64) {
	now := time.Now().UTC()
	removed := 0

	c.mu.Lock()
	for fp, me := range c.entries {
		if now.After(me.expiresAt) {
			delete(c.entries, fp)
			removed++
		}
	}
	for id, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, id)
			removed++
		}
	}
	c.mu.Unlock()

	purged, err := c.store.Purge(ctx, c.maxAge)
	if err != nil {
		c.warnStore(err)
		return removed, 0
	}
	c.storeUp.Store(true)
	if removed > 0 || purged > 0 {
		logger.GetLogger().
			WithField("memory_removed", removed).
			WithField("persistent_removed", purged).
			Info("Cache sweep completed")
	}
	return removed, purged
}

func (c *InstantCache) Stats() model.CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	items := len(c.items)
	c.mu.RUnlock()
	return model.CacheStats{
		MemoryEntries:       entries,
		IndexedItems:        items,
		Hits:                c.hits.Load(),
		Misses:              c.misses.Load(),
		Promotions:          c.promotions.Load(),
		PersistentAvailable: c.storeUp.Load(),
	}
}

// Ping probes the persistent tier directly, so health checks see an
// outage that happened since the last cache traffic.
func (c *InstantCache) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		c.warnStore(err)
		return err
	}
	c.storeUp.Store(true)
	return nil
}

func (c *InstantCache) warnStore(err error) {
	// Log the transition once per outage instead of per call.
	if c.storeUp.Swap(false) {
		logger.GetLogger().WithField("error", err).Warn("Persistent tier unreachable - degrading to memory-only cache")
	}
}
