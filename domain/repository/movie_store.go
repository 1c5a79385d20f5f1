package repository

import (
	"context"
	"time"

	"movie-hub/domain/model"
)

// IMovieStore is the persistent document store backing the Instant
// Cache. All methods return model.ErrStoreUnavailable when the store is
// not reachable so the cache can degrade to memory-only.
type IMovieStore interface {
	GetSearch(ctx context.Context, fingerprint string) (*model.CacheEntry, error)
	PutSearch(ctx context.Context, entry *model.CacheEntry) error
	GetItem(ctx context.Context, id string) (*model.NormalizedMovie, error)
	PutItems(ctx context.Context, movies []model.NormalizedMovie) error
	// IncrementPopularity bumps the per-item counter used by the
	// trending pre-fetch scanner.
	IncrementPopularity(ctx context.Context, id string) error
	// TopPopular returns the titles of the k most requested items.
	TopPopular(ctx context.Context, k int) ([]string, error)
	// Purge removes search entries stored before the cutoff.
	Purge(ctx context.Context, olderThan time.Duration) (int64, error)
	Ping(ctx context.Context) error
}
