package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"movie-hub/domain/model"
	"movie-hub/domain/repository"
	"movie-hub/infrastructure/logger"
	"movie-hub/infrastructure/utils"
)

const (
	prefetchLimit       = 10
	sparseResultCount   = 5
	prefetchTaskTimeout = 10 * time.Second
	trendingTopK        = 5
)

// IPrefetchUsecase is the Smart Pre-fetcher: it watches the query stream
// and warms the Instant Cache for predicted future searches. Everything
// it does is advisory; it never surfaces errors to foreground callers.
type IPrefetchUsecase interface {
	// AnalyzeSearchPattern feeds one foreground query into the pattern
	// tables and may enqueue prediction tasks. It never blocks.
	AnalyzeSearchPattern(query string, searchCtx map[string]string)
	Start()
	// Stop cancels the workers and waits for them within ctx.
	Stop(ctx context.Context) error
	Stats() model.PrefetchStats
}

// PrefetchUsecase runs five background workers: two queue consumers plus
// cron-scheduled pattern analysis, trending scan and seasonal prediction.
type PrefetchUsecase struct {
	analyzer *PatternAnalyzer
	cache    repository.IInstantCache
	api      repository.IMovieAPI
	fetcher  repository.IRealtimeFetcher
	store    repository.IMovieStore

	priorityQ chan model.PrefetchTask
	generalQ  chan model.PrefetchTask
	scheduler *cron.Cron
	stopCh    chan struct{}
	wg        sync.WaitGroup
	started   atomic.Bool

	enqueued     atomic.Int64
	dropped      atomic.Int64
	attempts     atomic.Int64
	warmed       atomic.Int64
	alreadyFresh atomic.Int64
}

func NewPrefetchUsecase(
	cache repository.IInstantCache,
	api repository.IMovieAPI,
	fetcher repository.IRealtimeFetcher,
	store repository.IMovieStore,
	prioritySize, generalSize int,
) *PrefetchUsecase {
	if prioritySize <= 0 {
		prioritySize = 64
	}
	if generalSize <= 0 {
		generalSize = 256
	}
	return &PrefetchUsecase{
		analyzer:  NewPatternAnalyzer(),
		cache:     cache,
		api:       api,
		fetcher:   fetcher,
		store:     store,
		priorityQ: make(chan model.PrefetchTask, prioritySize),
		generalQ:  make(chan model.PrefetchTask, generalSize),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the queue consumers and the periodic predictors.
func (p *PrefetchUsecase) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}

	p.wg.Add(2)
	go p.consume(p.priorityQ)
	go p.consume(p.generalQ)

	p.scheduler = cron.New(cron.WithSeconds())
	_, _ = p.scheduler.AddFunc("*/30 * * * * *", p.runSequenceMining)
	_, _ = p.scheduler.AddFunc("0 */5 * * * *", p.runTrendingScan)
	_, _ = p.scheduler.AddFunc("0 0 * * * *", p.runSeasonalPrediction)
	p.scheduler.Start()

	logger.GetLogger().Info("Smart pre-fetcher started")
}

// Stop halts the schedulers, signals the consumers and waits for them
// within the given context.
func (p *PrefetchUsecase) Stop(ctx context.Context) error {
	if !p.started.CompareAndSwap(true, false) {
		return nil
	}
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.GetLogger().Info("Smart pre-fetcher stopped")
		return nil
	case <-ctx.Done():
		logger.GetLogger().Warn("Smart pre-fetcher stop timed out")
		return ctx.Err()
	}
}

// AnalyzeSearchPattern records the query and enqueues typing-prefix and
// similarity predictions. Full queues drop tasks silently.
func (p *PrefetchUsecase) AnalyzeSearchPattern(query string, searchCtx map[string]string) {
	q := utils.NormalizeQuery(query)
	if q == "" {
		return
	}
	p.analyzer.Observe(q)

	for _, full := range p.analyzer.PrefixCandidates(q) {
		p.enqueue(model.PrefetchTask{
			Query:    full,
			Reason:   "typing-prediction",
			Priority: model.PriorityHigh,
		})
	}
	for _, similar := range p.analyzer.SimilarCandidates(q, trendingTopK) {
		p.enqueue(model.PrefetchTask{
			Query:    similar,
			Reason:   "similarity",
			Priority: model.PriorityNormal,
		})
	}
	if origin, ok := searchCtx["origin"]; ok {
		logger.GetLogger().WithField("origin", origin).WithField("query", q).Debug("Pattern observed")
	}
}

func (p *PrefetchUsecase) Stats() model.PrefetchStats {
	return model.PrefetchStats{
		PriorityQueueDepth: len(p.priorityQ),
		GeneralQueueDepth:  len(p.generalQ),
		Enqueued:           p.enqueued.Load(),
		Dropped:            p.dropped.Load(),
		Attempts:           p.attempts.Load(),
		CacheWarmed:        p.warmed.Load(),
		AlreadyFresh:       p.alreadyFresh.Load(),
	}
}

func (p *PrefetchUsecase) enqueue(task model.PrefetchTask) {
	task.EnqueuedAt = time.Now().UTC()
	q := p.generalQ
	if task.Priority == model.PriorityHigh {
		q = p.priorityQ
	}
	select {
	case q <- task:
		p.enqueued.Add(1)
	default:
		// Bounded queues: best effort, drop on backpressure.
		p.dropped.Add(1)
	}
}

func (p *PrefetchUsecase) consume(q chan model.PrefetchTask) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case task := <-q:
			p.executePrefetch(task)
		}
	}
}

// executePrefetch warms the cache for one predicted query. It is a no-op
// when the cache already holds a fresh entry, and any failure is logged
// and dropped.
func (p *PrefetchUsecase) executePrefetch(task model.PrefetchTask) {
	ctx, cancel := context.WithTimeout(context.Background(), prefetchTaskTimeout)
	defer cancel()

	if _, fresh := p.cache.Get(ctx, task.Query, prefetchLimit); fresh {
		p.alreadyFresh.Add(1)
		return
	}
	p.attempts.Add(1)

	movies, err := p.api.Search(ctx, task.Query, prefetchLimit)
	if err != nil {
		logger.GetLogger().
			WithField("query", task.Query).
			WithField("reason", task.Reason).
			WithField("kind", model.KindOf(err)).
			Debug("Prefetch API call failed")
		movies = nil
	}

	var scraped []model.ScrapingResult
	if len(movies) < sparseResultCount {
		scraped, err = p.fetcher.Search(ctx, task.Query, prefetchLimit)
		if err != nil {
			logger.GetLogger().
				WithField("query", task.Query).
				WithField("error", err).
				Debug("Prefetch scrape failed")
			scraped = nil
		}
	}

	merged := mergeMovies(movies, scraped, prefetchLimit)
	if len(merged) == 0 {
		return
	}
	p.cache.Set(ctx, task.Query, prefetchLimit, merged)
	p.warmed.Add(1)
	logger.GetLogger().
		WithField("query", task.Query).
		WithField("reason", task.Reason).
		WithField("results", len(merged)).
		Debug("Cache warmed by prefetch")
}

// runSequenceMining enqueues successors of recurring query pairs.
func (p *PrefetchUsecase) runSequenceMining() {
	for _, predicted := range p.analyzer.MineSequences() {
		p.enqueue(model.PrefetchTask{
			Query:    predicted,
			Reason:   "sequence",
			Priority: model.PriorityNormal,
		})
	}
}

// runTrendingScan enqueues the most frequent recent queries plus the
// store's most requested titles.
func (p *PrefetchUsecase) runTrendingScan() {
	for _, q := range p.analyzer.TopQueries(trendingTopK) {
		p.enqueue(model.PrefetchTask{Query: q, Reason: "trending", Priority: model.PriorityNormal})
	}
	if p.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	titles, err := p.store.TopPopular(ctx, trendingTopK)
	if err != nil {
		logger.GetLogger().WithField("error", err).Debug("Popularity scan unavailable")
		return
	}
	for _, title := range titles {
		p.enqueue(model.PrefetchTask{Query: title, Reason: "popular", Priority: model.PriorityNormal})
	}
}

// runSeasonalPrediction enqueues date-derived keyword queries.
func (p *PrefetchUsecase) runSeasonalPrediction() {
	for _, q := range seasonalQueries(time.Now().UTC().Month()) {
		p.enqueue(model.PrefetchTask{Query: q, Reason: "seasonal", Priority: model.PriorityNormal})
	}
}

func seasonalQueries(month time.Month) []string {
	switch month {
	case time.December, time.January:
		return []string{"christmas movies", "holiday classics"}
	case time.February:
		return []string{"romantic movies"}
	case time.June, time.July, time.August:
		return []string{"summer blockbuster", "action movies"}
	case time.October:
		return []string{"horror movies", "halloween"}
	case time.November:
		return []string{"family movies"}
	default:
		return []string{"popular movies"}
	}
}
