package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"movie-hub/domain/model"
	"movie-hub/usecase"
)

// Mock implementations
type MockInstantCache struct {
	mock.Mock
}

func (m *MockInstantCache) Get(ctx context.Context, query string, limit int) ([]model.NormalizedMovie, bool) {
	args := m.Called(ctx, query, limit)
	var movies []model.NormalizedMovie
	if args.Get(0) != nil {
		movies = args.Get(0).([]model.NormalizedMovie)
	}
	return movies, args.Bool(1)
}

func (m *MockInstantCache) Set(ctx context.Context, query string, limit int, results []model.NormalizedMovie) {
	m.Called(ctx, query, limit, results)
}

func (m *MockInstantCache) GetByID(ctx context.Context, id string) (*model.NormalizedMovie, bool) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*model.NormalizedMovie), args.Bool(1)
}

func (m *MockInstantCache) Sweep(ctx context.Context) (int, int64) {
	args := m.Called(ctx)
	return args.Int(0), args.Get(1).(int64)
}

func (m *MockInstantCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockInstantCache) Stats() model.CacheStats {
	args := m.Called()
	return args.Get(0).(model.CacheStats)
}

type MockMovieAPI struct {
	mock.Mock
}

func (m *MockMovieAPI) Search(ctx context.Context, query string, limit int) ([]model.NormalizedMovie, error) {
	args := m.Called(ctx, query, limit)
	var movies []model.NormalizedMovie
	if args.Get(0) != nil {
		movies = args.Get(0).([]model.NormalizedMovie)
	}
	return movies, args.Error(1)
}

func (m *MockMovieAPI) GetByID(ctx context.Context, id string) (*model.NormalizedMovie, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NormalizedMovie), args.Error(1)
}

func (m *MockMovieAPI) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMovieAPI) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockRealtimeFetcher struct {
	mock.Mock
}

func (m *MockRealtimeFetcher) Search(ctx context.Context, query string, limit int) ([]model.ScrapingResult, error) {
	args := m.Called(ctx, query, limit)
	var results []model.ScrapingResult
	if args.Get(0) != nil {
		results = args.Get(0).([]model.ScrapingResult)
	}
	return results, args.Error(1)
}

func (m *MockRealtimeFetcher) GetDetails(ctx context.Context, externalID string) (*model.NormalizedMovie, bool) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*model.NormalizedMovie), args.Bool(1)
}

func (m *MockRealtimeFetcher) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRealtimeFetcher) Stats() model.FetcherStats {
	args := m.Called()
	return args.Get(0).(model.FetcherStats)
}

func (m *MockRealtimeFetcher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockPrefetcher struct {
	mock.Mock
}

func (m *MockPrefetcher) AnalyzeSearchPattern(query string, searchCtx map[string]string) {
	m.Called(query, searchCtx)
}

func (m *MockPrefetcher) Start() {
	m.Called()
}

func (m *MockPrefetcher) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPrefetcher) Stats() model.PrefetchStats {
	args := m.Called()
	return args.Get(0).(model.PrefetchStats)
}

func newTestUsecase(cache *MockInstantCache, api *MockMovieAPI, fetcher *MockRealtimeFetcher, prefetcher *MockPrefetcher) usecase.ISearchUsecase {
	return usecase.NewSearchUsecase(cache, api, fetcher, prefetcher, nil, time.Second)
}

func TestSearchUsecase_Search_ServedFromCache(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	cached := []model.NormalizedMovie{
		{ID: "tt1375666", Title: "Inception", Year: 2010, Source: "imdb"},
	}
	mockCache.On("Get", mock.Anything, "inception", 10).
		Return(cached, true).
		Once()
	mockPrefetcher.On("AnalyzeSearchPattern", "inception", mock.Anything).Maybe()

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	res := searchUsecase.Search(context.Background(), "inception", 10, nil)

	assert.Equal(t, "cache", res.Metadata.LayerUsed)
	assert.True(t, res.Metadata.Cached)
	assert.Equal(t, cached, res.Results)
	assert.Equal(t, []string{"imdb"}, res.Metadata.Sources)
	assert.Equal(t, "excellent", res.Metadata.Performance)
	assert.NotEmpty(t, res.Metadata.SearchID)
	assert.Empty(t, res.Metadata.Error)

	mockAPI.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	mockFetcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	mockCache.AssertExpectations(t)
}

func TestSearchUsecase_Search_FetchesAndCachesOnMiss(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	apiMovies := []model.NormalizedMovie{
		{ID: "603", Title: "The Matrix", Year: 1999, Source: "moviedb"},
	}
	scraped := []model.ScrapingResult{
		// Same title as the API hit; must be deduplicated away.
		{Title: "The Matrix", ExternalID: "tt0133093", Year: 1999, Source: "imdb", Confidence: 0.9},
		{Title: "The Matrix Reloaded", ExternalID: "tt0234215", Year: 2003, Source: "imdb", Confidence: 0.85},
	}

	mockCache.On("Get", mock.Anything, "the matrix", 5).Return(nil, false).Once()
	mockAPI.On("Search", mock.Anything, "the matrix", 5).Return(apiMovies, nil).Once()
	mockFetcher.On("Search", mock.Anything, "the matrix", 5).Return(scraped, nil).Once()
	mockCache.On("Set", mock.Anything, "the matrix", 5, mock.Anything).Once()
	mockPrefetcher.On("AnalyzeSearchPattern", "the matrix", mock.Anything).Maybe()

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	res := searchUsecase.Search(context.Background(), "the matrix", 5, nil)

	assert.Equal(t, "fetch", res.Metadata.LayerUsed)
	assert.False(t, res.Metadata.Cached)
	assert.Len(t, res.Results, 2)
	// API entries carry the highest confidence and rank first.
	assert.Equal(t, "The Matrix", res.Results[0].Title)
	assert.Equal(t, "moviedb", res.Results[0].Source)
	assert.Equal(t, "The Matrix Reloaded", res.Results[1].Title)
	assert.ElementsMatch(t, []string{"moviedb", "imdb"}, res.Metadata.Sources)
	assert.Empty(t, res.Metadata.Error)

	mockCache.AssertExpectations(t)
	mockAPI.AssertExpectations(t)
	mockFetcher.AssertExpectations(t)
}

func TestSearchUsecase_Search_TotalMiss(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	apiErr := model.NewLayerError("api", "moviedb", model.ErrKindConnectivity, errors.New("dial tcp: refused"))
	mockCache.On("Get", mock.Anything, "ghost film", 10).Return(nil, false).Once()
	mockAPI.On("Search", mock.Anything, "ghost film", 10).Return(nil, apiErr).Once()
	mockFetcher.On("Search", mock.Anything, "ghost film", 10).Return([]model.ScrapingResult{}, nil).Once()
	mockPrefetcher.On("AnalyzeSearchPattern", "ghost film", mock.Anything).Maybe()

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	res := searchUsecase.Search(context.Background(), "ghost film", 10, nil)

	assert.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
	assert.Equal(t, "fetch", res.Metadata.LayerUsed)
	assert.Equal(t, "failed", res.Metadata.Performance)
	assert.Equal(t, "no results from any source", res.Metadata.Error)

	// Nothing to cache on a total miss.
	mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchUsecase_Search_EmptyQuery(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	res := searchUsecase.Search(context.Background(), "   ", 10, nil)

	assert.Equal(t, "none", res.Metadata.LayerUsed)
	assert.Equal(t, "failed", res.Metadata.Performance)
	assert.Equal(t, "empty query", res.Metadata.Error)
	assert.Empty(t, res.Results)

	mockCache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	mockAPI.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	mockFetcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchUsecase_Search_ClampsLimit(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	cached := []model.NormalizedMovie{{ID: "1", Title: "Heat", Source: "imdb"}}
	// 500 is clamped to the ceiling, 0 to the default.
	mockCache.On("Get", mock.Anything, "heat", 50).Return(cached, true).Once()
	mockCache.On("Get", mock.Anything, "heat", 10).Return(cached, true).Once()
	mockPrefetcher.On("AnalyzeSearchPattern", "heat", mock.Anything).Maybe()

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	searchUsecase.Search(context.Background(), "heat", 500, nil)
	searchUsecase.Search(context.Background(), "heat", 0, nil)

	mockCache.AssertExpectations(t)
}

func TestSearchUsecase_GetMovieDetails_FallbackChain(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	scrapedMovie := &model.NormalizedMovie{ID: "tt0111161", Title: "The Shawshank Redemption", Source: "imdb"}

	mockCache.On("GetByID", mock.Anything, "tt0111161").Return(nil, false).Once()
	mockAPI.On("GetByID", mock.Anything, "tt0111161").
		Return(nil, model.NewLayerError("api", "moviedb", model.ErrKindConnectivity, errors.New("timeout"))).
		Once()
	mockFetcher.On("GetDetails", mock.Anything, "tt0111161").Return(scrapedMovie, true).Once()

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	movie, ok := searchUsecase.GetMovieDetails(context.Background(), "tt0111161")

	assert.True(t, ok)
	assert.Equal(t, scrapedMovie, movie)
	mockCache.AssertExpectations(t)
	mockAPI.AssertExpectations(t)
	mockFetcher.AssertExpectations(t)
}

func TestSearchUsecase_GetMovieDetails_APIShortCircuits(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	apiMovie := &model.NormalizedMovie{ID: "603", Title: "The Matrix", Source: "moviedb"}
	mockCache.On("GetByID", mock.Anything, "603").Return(nil, false).Once()
	mockAPI.On("GetByID", mock.Anything, "603").Return(apiMovie, nil).Once()

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	movie, ok := searchUsecase.GetMovieDetails(context.Background(), "603")

	assert.True(t, ok)
	assert.Equal(t, apiMovie, movie)
	mockFetcher.AssertNotCalled(t, "GetDetails", mock.Anything, mock.Anything)
}

func TestSearchUsecase_HealthCheck(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	mockCache.On("Ping", mock.Anything).Return(model.ErrStoreUnavailable).Once()
	mockAPI.On("Ping", mock.Anything).Return(nil).Once()
	mockFetcher.On("Ping", mock.Anything).Return(errors.New("robots.txt unreachable")).Once()

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	health := searchUsecase.HealthCheck(context.Background())

	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "memory-only", health.Layers["cache"])
	assert.Equal(t, "ok", health.Layers["api"])
	assert.Contains(t, health.Layers["fetcher"], "robots.txt")
}

func TestSearchUsecase_HealthCheck_AllHealthy(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	mockCache.On("Ping", mock.Anything).Return(nil).Once()
	mockAPI.On("Ping", mock.Anything).Return(nil).Once()
	mockFetcher.On("Ping", mock.Anything).Return(nil).Once()

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	health := searchUsecase.HealthCheck(context.Background())

	assert.Equal(t, "healthy", health.Status)
}

func TestSearchUsecase_Shutdown_CollectsErrors(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	closeErr := errors.New("transport close failed")
	mockPrefetcher.On("Stop", mock.Anything).Return(nil).Once()
	mockFetcher.On("Close").Return(closeErr).Once()
	mockCache.On("Sweep", mock.Anything).Return(0, int64(0)).Once()
	mockAPI.On("Close").Return(nil).Once()

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	err := searchUsecase.Shutdown(context.Background())

	assert.ErrorIs(t, err, closeErr)
	mockPrefetcher.AssertExpectations(t)
	mockFetcher.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockAPI.AssertExpectations(t)
}

func TestSearchUsecase_StatsAggregates(t *testing.T) {
	mockCache := new(MockInstantCache)
	mockAPI := new(MockMovieAPI)
	mockFetcher := new(MockRealtimeFetcher)
	mockPrefetcher := new(MockPrefetcher)

	cached := []model.NormalizedMovie{{ID: "1", Title: "Alien", Source: "imdb"}}
	mockCache.On("Get", mock.Anything, "alien", 10).Return(cached, true).Once()
	mockCache.On("Stats").Return(model.CacheStats{Hits: 1}).Once()
	mockFetcher.On("Stats").Return(model.FetcherStats{}).Once()
	mockPrefetcher.On("Stats").Return(model.PrefetchStats{}).Once()
	mockPrefetcher.On("AnalyzeSearchPattern", "alien", mock.Anything).Maybe()

	searchUsecase := newTestUsecase(mockCache, mockAPI, mockFetcher, mockPrefetcher)
	searchUsecase.Search(context.Background(), "alien", 10, nil)
	stats := searchUsecase.Stats()

	assert.Equal(t, int64(1), stats.Searches)
	assert.Equal(t, int64(1), stats.CacheServed)
	assert.Equal(t, int64(0), stats.FetchServed)
	assert.Equal(t, int64(1), stats.Cache.Hits)
}
