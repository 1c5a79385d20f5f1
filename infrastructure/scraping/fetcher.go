package scraping

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"movie-hub/domain/model"
	"movie-hub/domain/repository"
	"movie-hub/infrastructure/cache"
	"movie-hub/infrastructure/logger"
	"movie-hub/infrastructure/utils"
)

type sourceCounters struct {
	requests atomic.Int64
	skipped  atomic.Int64
	failures atomic.Int64
}

// Closer lets the fetcher release its transport on shutdown without
// owning the page-fetcher construction.
type Closer interface {
	Close()
}

// RealtimeFetcher dispatches a query to every configured source in
// parallel, each gated by its own token bucket, and merges what comes
// back. A failing or exhausted source is skipped, never fatal.
type RealtimeFetcher struct {
	sources    []Source
	limiters   map[string]*rate.Limiter
	priorities map[string]int
	counters   map[string]*sourceCounters
	dedup      *cache.DedupCache
	timeout    time.Duration
	transport  Closer

	dedupHits   atomic.Int64
	dedupMisses atomic.Int64
}

// NewRealtimeFetcher builds the fetcher. quotas maps source name to its
// per-minute request budget.
func NewRealtimeFetcher(sources []Source, quotas map[string]int, dedup *cache.DedupCache, timeout time.Duration, transport Closer) repository.IRealtimeFetcher {
	limiters := make(map[string]*rate.Limiter, len(sources))
	priorities := make(map[string]int, len(sources))
	counters := make(map[string]*sourceCounters, len(sources))
	for _, src := range sources {
		quota := quotas[src.Name()]
		if quota <= 0 {
			quota = 10
		}
		limiters[src.Name()] = rate.NewLimiter(rate.Limit(float64(quota)/60.0), quota)
		priorities[src.Name()] = src.Priority()
		counters[src.Name()] = &sourceCounters{}
	}
	return &RealtimeFetcher{
		sources:    sources,
		limiters:   limiters,
		priorities: priorities,
		counters:   counters,
		dedup:      dedup,
		timeout:    timeout,
		transport:  transport,
	}
}

func (f *RealtimeFetcher) Search(ctx context.Context, query string, limit int) ([]model.ScrapingResult, error) {
	q := utils.NormalizeQuery(query)
	if q == "" {
		return []model.ScrapingResult{}, nil
	}

	if cached, ok := f.dedup.Get(ctx, q); ok {
		f.dedupHits.Add(1)
		return truncate(cached, limit), nil
	}
	f.dedupMisses.Add(1)

	resultSets := make([][]model.ScrapingResult, len(f.sources))
	var wg sync.WaitGroup
	for i, src := range f.sources {
		if !f.limiters[src.Name()].Allow() {
			f.counters[src.Name()].skipped.Add(1)
			logger.GetLogger().
				WithField("source", src.Name()).
				WithField("query", q).
				Debug("Source quota exhausted - skipping for this call")
			continue
		}
		wg.Add(1)
		go func(idx int, src Source) {
			defer wg.Done()
			srcCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			f.counters[src.Name()].requests.Add(1)
			results, err := src.Search(srcCtx, q)
			if err != nil {
				f.counters[src.Name()].failures.Add(1)
				logger.GetLogger().
					WithField("source", src.Name()).
					WithField("kind", model.KindOf(err)).
					WithField("error", err).
					Warn("Source search failed - contributing empty set")
				return
			}
			resultSets[idx] = results
		}(i, src)
	}
	wg.Wait()

	merged := MergeResults(resultSets, f.priorities, 0)
	if len(merged) > 0 {
		f.dedup.Set(ctx, q, merged)
	}
	return truncate(merged, limit), nil
}

// GetDetails asks the highest-priority source only; callers chain their
// own fallbacks.
func (f *RealtimeFetcher) GetDetails(ctx context.Context, externalID string) (*model.NormalizedMovie, bool) {
	if externalID == "" || len(f.sources) == 0 {
		return nil, false
	}
	src := f.sources[0]
	if !f.limiters[src.Name()].Allow() {
		f.counters[src.Name()].skipped.Add(1)
		return nil, false
	}

	detailCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.counters[src.Name()].requests.Add(1)
	movie, err := src.Details(detailCtx, externalID)
	if err != nil {
		f.counters[src.Name()].failures.Add(1)
		logger.GetLogger().
			WithField("source", src.Name()).
			WithField("external_id", externalID).
			WithField("error", err).
			Warn("Detail fetch failed")
		return nil, false
	}
	return movie, movie != nil
}

// Ping probes the first source's robots.txt, which is cheap and does not
// consume search quota.
func (f *RealtimeFetcher) Ping(ctx context.Context) error {
	if len(f.sources) == 0 {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return f.sources[0].Ping(pingCtx)
}

func (f *RealtimeFetcher) Stats() model.FetcherStats {
	sources := make(map[string]model.SourceStats, len(f.sources))
	for name, c := range f.counters {
		sources[name] = model.SourceStats{
			Requests:  c.requests.Load(),
			Skipped:   c.skipped.Load(),
			Failures:  c.failures.Load(),
			TokensNow: f.limiters[name].Tokens(),
		}
	}
	return model.FetcherStats{
		DedupHits:   f.dedupHits.Load(),
		DedupMisses: f.dedupMisses.Load(),
		Sources:     sources,
	}
}

func (f *RealtimeFetcher) Close() error {
	if f.transport != nil {
		f.transport.Close()
	}
	return nil
}

func truncate(results []model.ScrapingResult, limit int) []model.ScrapingResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
