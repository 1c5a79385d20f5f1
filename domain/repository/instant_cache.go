package repository

import (
	"context"

	"movie-hub/domain/model"
)

// IInstantCache is the two-tier (memory + persistent) read-through cache.
// Operations never fail; when the persistent tier is unreachable they
// silently degrade to memory-only.
type IInstantCache interface {
	// Get returns cached results for (query, limit), memory tier first.
	// A persistent hit is promoted into memory. TTL is enforced on read.
	Get(ctx context.Context, query string, limit int) ([]model.NormalizedMovie, bool)
	// Set writes through to both tiers and indexes each result by id.
	Set(ctx context.Context, query string, limit int, results []model.NormalizedMovie)
	// GetByID looks a single movie up by its external id.
	GetByID(ctx context.Context, id string) (*model.NormalizedMovie, bool)
	// Sweep removes stale memory entries and purges old persistent rows.
	Sweep(ctx context.Context) (memoryRemoved int, persistentRemoved int64)
	// Ping probes the persistent tier; erroring means memory-only.
	Ping(ctx context.Context) error
	Stats() model.CacheStats
}
