package repository

import (
	"context"

	"movie-hub/domain/model"
)

// IRealtimeFetcher is the multi-source scraping pipeline. A failed or
// rate-limited source contributes an empty set; Search only errors on
// internal misuse, never on source failures.
type IRealtimeFetcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.ScrapingResult, error)
	// GetDetails fetches a single movie from the highest-priority source
	// under its own timeout. Returns (nil, false) on any failure.
	GetDetails(ctx context.Context, externalID string) (*model.NormalizedMovie, bool)
	Ping(ctx context.Context) error
	Stats() model.FetcherStats
	Close() error
}

// IPageFetcher is the low-level scraping provider primitive. Selector
// parsing of the returned document stays inside the fetcher component so
// markup churn never leaks into the orchestration core.
type IPageFetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}
