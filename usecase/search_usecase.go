package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"movie-hub/domain/model"
	"movie-hub/domain/repository"
	"movie-hub/infrastructure/logger"
	"movie-hub/infrastructure/scraping"
)

const (
	defaultLimit  = 10
	maxLimit      = 50
	apiConfidence = 0.95

	perfExcellentUnder = 500 * time.Millisecond
	perfGoodUnder      = 2 * time.Second
)

// ISearchUsecase is the orchestrator: the single entry point sequencing
// cache-read, parallel fetch and cache-write. Its methods never return
// errors for retrieval failures; degradation shows up in the response
// metadata instead.
type ISearchUsecase interface {
	Search(ctx context.Context, query string, limit int, searchCtx map[string]string) *model.SearchResponse
	GetMovieDetails(ctx context.Context, id string) (*model.NormalizedMovie, bool)
	HealthCheck(ctx context.Context) model.HealthStatus
	Stats() model.Stats
	Sweep(ctx context.Context) (int, int64)
	Shutdown(ctx context.Context) error
}

type SearchUsecase struct {
	cache      repository.IInstantCache
	api        repository.IMovieAPI
	fetcher    repository.IRealtimeFetcher
	prefetcher IPrefetchUsecase
	events     repository.ISearchEvents
	apiTimeout time.Duration

	searches    atomic.Int64
	cacheServed atomic.Int64
	fetchServed atomic.Int64
}

func NewSearchUsecase(
	cache repository.IInstantCache,
	api repository.IMovieAPI,
	fetcher repository.IRealtimeFetcher,
	prefetcher IPrefetchUsecase,
	events repository.ISearchEvents,
	apiTimeout time.Duration,
) ISearchUsecase {
	if apiTimeout == 0 {
		apiTimeout = 5 * time.Second
	}
	return &SearchUsecase{
		cache:      cache,
		api:        api,
		fetcher:    fetcher,
		prefetcher: prefetcher,
		events:     events,
		apiTimeout: apiTimeout,
	}
}

func (s *SearchUsecase) Search(ctx context.Context, query string, limit int, searchCtx map[string]string) *model.SearchResponse {
	start := time.Now()
	searchID := uuid.NewString()
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if strings.TrimSpace(query) == "" {
		return &model.SearchResponse{
			Results: []model.NormalizedMovie{},
			Metadata: model.SearchMetadata{
				LayerUsed:   "none",
				SearchID:    searchID,
				Sources:     []string{},
				Performance: "failed",
				Error:       "empty query",
			},
		}
	}

	s.searches.Add(1)

	// Feed the pattern analyzer without ever blocking or failing the
	// main path.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.GetLogger().WithField("panic", r).Error("Pattern analysis panicked")
			}
		}()
		s.prefetcher.AnalyzeSearchPattern(query, searchCtx)
	}()

	cacheStart := time.Now()
	if results, ok := s.cache.Get(ctx, query, limit); ok {
		elapsed := time.Since(start)
		s.cacheServed.Add(1)
		resp := &model.SearchResponse{
			Results: results,
			Metadata: model.SearchMetadata{
				LayerUsed:      "cache",
				ResponseTimeMs: elapsed.Milliseconds(),
				Cached:         true,
				Sources:        distinctSources(results),
				SearchID:       searchID,
				Performance:    classifyPerformance(elapsed, len(results)),
				Timings: model.PhaseTimings{
					CacheMs: time.Since(cacheStart).Milliseconds(),
					TotalMs: elapsed.Milliseconds(),
				},
			},
		}
		s.publishEvent(query, "cache", len(results), elapsed)
		return resp
	}
	cacheMs := time.Since(cacheStart).Milliseconds()

	// Cache miss: metadata API and scraping pipeline race in parallel,
	// each under its own timeout, each failure collapsing to empty.
	var (
		apiMovies []model.NormalizedMovie
		scraped   []model.ScrapingResult
		apiMs     int64
		scrapeMs  int64
	)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		branchStart := time.Now()
		apiCtx, cancel := context.WithTimeout(ctx, s.apiTimeout)
		defer cancel()
		movies, err := s.api.Search(apiCtx, query, limit)
		apiMs = time.Since(branchStart).Milliseconds()
		if err != nil {
			logger.GetLogger().
				WithField("query", query).
				WithField("kind", model.KindOf(err)).
				WithField("error", err).
				Warn("Metadata API branch failed - treating as empty")
			return
		}
		apiMovies = movies
	}()
	go func() {
		defer wg.Done()
		branchStart := time.Now()
		results, err := s.fetcher.Search(ctx, query, limit)
		scrapeMs = time.Since(branchStart).Milliseconds()
		if err != nil {
			logger.GetLogger().
				WithField("query", query).
				WithField("error", err).
				Warn("Fetcher branch failed - treating as empty")
			return
		}
		scraped = results
	}()
	wg.Wait()

	merged := mergeMovies(apiMovies, scraped, limit)
	if len(merged) > 0 {
		s.cache.Set(ctx, query, limit, merged)
	}
	s.fetchServed.Add(1)

	elapsed := time.Since(start)
	metadata := model.SearchMetadata{
		LayerUsed:      "fetch",
		ResponseTimeMs: elapsed.Milliseconds(),
		Cached:         false,
		Sources:        distinctSources(merged),
		SearchID:       searchID,
		Performance:    classifyPerformance(elapsed, len(merged)),
		Timings: model.PhaseTimings{
			CacheMs:  cacheMs,
			APIMs:    apiMs,
			ScrapeMs: scrapeMs,
			TotalMs:  elapsed.Milliseconds(),
		},
	}
	if len(merged) == 0 {
		metadata.Error = "no results from any source"
	}
	s.publishEvent(query, "fetch", len(merged), elapsed)
	return &model.SearchResponse{Results: merged, Metadata: metadata}
}

// GetMovieDetails tries cache, metadata API, then the scraping detail
// fetch; first success wins.
func (s *SearchUsecase) GetMovieDetails(ctx context.Context, id string) (*model.NormalizedMovie, bool) {
	if movie, ok := s.cache.GetByID(ctx, id); ok {
		return movie, true
	}

	apiCtx, cancel := context.WithTimeout(ctx, s.apiTimeout)
	movie, err := s.api.GetByID(apiCtx, id)
	cancel()
	if err != nil {
		logger.GetLogger().
			WithField("id", id).
			WithField("kind", model.KindOf(err)).
			Warn("Metadata API details failed - falling back to fetcher")
	} else if movie != nil {
		return movie, true
	}

	return s.fetcher.GetDetails(ctx, id)
}

// HealthCheck probes each layer independently; one failing layer marks
// the whole status degraded but never aborts the remaining probes.
func (s *SearchUsecase) HealthCheck(ctx context.Context) model.HealthStatus {
	layers := make(map[string]string, 3)
	status := "healthy"

	if err := s.cache.Ping(ctx); err != nil {
		layers["cache"] = "memory-only"
		status = "degraded"
	} else {
		layers["cache"] = "ok"
	}

	if err := s.api.Ping(ctx); err != nil {
		layers["api"] = err.Error()
		status = "degraded"
	} else {
		layers["api"] = "ok"
	}

	if err := s.fetcher.Ping(ctx); err != nil {
		layers["fetcher"] = err.Error()
		status = "degraded"
	} else {
		layers["fetcher"] = "ok"
	}

	return model.HealthStatus{Status: status, Layers: layers, CheckedAt: time.Now().UTC()}
}

func (s *SearchUsecase) Stats() model.Stats {
	return model.Stats{
		Searches:    s.searches.Load(),
		CacheServed: s.cacheServed.Load(),
		FetchServed: s.fetchServed.Load(),
		Cache:       s.cache.Stats(),
		Fetcher:     s.fetcher.Stats(),
		Prefetch:    s.prefetcher.Stats(),
	}
}

func (s *SearchUsecase) Sweep(ctx context.Context) (int, int64) {
	return s.cache.Sweep(ctx)
}

// Shutdown tears the layers down in reverse dependency order: workers
// first, then the fetcher's connections, a final cache sweep, and the
// API client last.
func (s *SearchUsecase) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.prefetcher.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.fetcher.Close(); err != nil {
		errs = append(errs, err)
	}
	s.cache.Sweep(ctx)
	if err := s.api.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		logger.GetLogger().WithField("errors", errs).Warn("Shutdown finished with errors")
	}
	return errors.Join(errs...)
}

func (s *SearchUsecase) publishEvent(query, layer string, resultCount int, elapsed time.Duration) {
	if s.events == nil {
		return
	}
	event := model.SearchEvent{
		Query:       query,
		Layer:       layer,
		ResultCount: resultCount,
		ElapsedMs:   elapsed.Milliseconds(),
		At:          time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.events.Publish(ctx, event); err != nil {
			logger.GetLogger().WithField("error", err).Debug("Search event publish failed")
		}
	}()
}

// mergeMovies runs the metadata API branch and the scraped branch
// through the same ranking and dedup rule the fetcher uses internally.
func mergeMovies(apiMovies []model.NormalizedMovie, scraped []model.ScrapingResult, limit int) []model.NormalizedMovie {
	apiSet := make([]model.ScrapingResult, 0, len(apiMovies))
	for _, m := range apiMovies {
		apiSet = append(apiSet, m.AsScrapingResult(apiConfidence))
	}
	merged := scraping.MergeResults([][]model.ScrapingResult{apiSet, scraped}, nil, limit)
	out := make([]model.NormalizedMovie, 0, len(merged))
	for _, r := range merged {
		out = append(out, r.Normalized())
	}
	return out
}

func distinctSources(movies []model.NormalizedMovie) []string {
	seen := make(map[string]struct{}, len(movies))
	sources := make([]string, 0, len(movies))
	for _, m := range movies {
		if m.Source == "" {
			continue
		}
		if _, ok := seen[m.Source]; ok {
			continue
		}
		seen[m.Source] = struct{}{}
		sources = append(sources, m.Source)
	}
	return sources
}

func classifyPerformance(elapsed time.Duration, resultCount int) string {
	if resultCount == 0 {
		return "failed"
	}
	switch {
	case elapsed < perfExcellentUnder:
		return "excellent"
	case elapsed < perfGoodUnder:
		return "good"
	default:
		return "acceptable"
	}
}
