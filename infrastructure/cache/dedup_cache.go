package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"movie-hub/domain/model"
	"movie-hub/infrastructure/logger"
	"movie-hub/infrastructure/utils"
)

const dedupKeyPrefix = "moviehub:dedup:"

type dedupEntry struct {
	results   []model.ScrapingResult
	expiresAt time.Time
}

// DedupCache suppresses repeated scraping for the same query inside a
// short window. Redis-backed when a client is present so multiple
// instances share the window; otherwise an in-process map.
type DedupCache struct {
	rdb *redis.Client
	ttl time.Duration

	mu    sync.RWMutex
	local map[string]dedupEntry
}

func NewDedupCache(rdb *redis.Client, ttl time.Duration) *DedupCache {
	return &DedupCache{
		rdb:   rdb,
		ttl:   ttl,
		local: make(map[string]dedupEntry),
	}
}

func (d *DedupCache) Get(ctx context.Context, query string) ([]model.ScrapingResult, bool) {
	key := utils.NormalizeQuery(query)

	if d.rdb != nil {
		raw, err := d.rdb.Get(ctx, dedupKeyPrefix+key).Bytes()
		if err == nil {
			var results []model.ScrapingResult
			if jsonErr := json.Unmarshal(raw, &results); jsonErr == nil {
				return results, true
			}
			logger.GetLogger().WithField("key", key).Warn("Discarding undecodable dedup cache entry")
			return nil, false
		}
		if !errors.Is(err, redis.Nil) {
			logger.GetLogger().WithField("error", err).Debug("Redis dedup lookup failed - using local fallback")
		} else {
			return nil, false
		}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.local[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.results, true
}

func (d *DedupCache) Set(ctx context.Context, query string, results []model.ScrapingResult) {
	key := utils.NormalizeQuery(query)

	if d.rdb != nil {
		if raw, err := json.Marshal(results); err == nil {
			setErr := d.rdb.Set(ctx, dedupKeyPrefix+key, raw, d.ttl).Err()
			if setErr == nil {
				return
			}
			logger.GetLogger().WithField("error", setErr).Debug("Redis dedup store failed - using local fallback")
		}
	}

	d.mu.Lock()
	d.local[key] = dedupEntry{results: results, expiresAt: time.Now().Add(d.ttl)}
	d.mu.Unlock()
}
