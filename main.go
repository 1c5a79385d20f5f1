package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"movie-hub/infrastructure/cache"
	"movie-hub/infrastructure/clients/moviedb"
	"movie-hub/infrastructure/configuration"
	"movie-hub/infrastructure/logger"
	"movie-hub/infrastructure/persistence"
	"movie-hub/infrastructure/pubsub"
	"movie-hub/infrastructure/scraping"
	httpHandler "movie-hub/interfaces/http"
	"movie-hub/server"
	"movie-hub/usecase"
)

const dedupTTL = 5 * time.Minute

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence).
	configuration.LoadEnvFromFile("config.env", ".env")
	cfg := configuration.C

	// Persistent document store; the cache degrades to memory-only when
	// it is missing.
	mongoDb, err := persistence.NewMongoDb(
		cfg.Database.Mongo.Host,
		cfg.Database.Mongo.Port,
		cfg.Database.Mongo.User,
		cfg.Database.Mongo.Password,
		cfg.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing memory-only")
		mongoDb = nil
	} else {
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := mongoDb.Ping(pingCtx, nil); err != nil {
			logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing memory-only")
			mongoDb = nil
		} else {
			logger.GetLogger().Info("MongoDB connected successfully")
		}
		pingCancel()
	}

	movieStore := persistence.NewMovieStoreRepository(mongoDb, cfg.Database.Mongo.Name)
	idxCtx, idxCancel := context.WithTimeout(ctx, 5*time.Second)
	movieStore.EnsureIndexes(idxCtx)
	idxCancel()

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
		cfg.RedisClient.Username,
		cfg.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - dedup cache falls back to process memory")
		redisClient = nil
	} else {
		logger.GetLogger().Info("Redis client initialized successfully")
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - search events disabled")
		pubSubClient = nil
	}
	searchEvents := pubsub.NewSearchEventPublisher(pubSubClient, cfg.Pubsub.Topic)

	instantCache := cache.NewInstantCache(
		movieStore,
		cfg.Cache.MemoryTTL(),
		cfg.Cache.PersistentTTL(),
		cfg.Cache.PersistentMaxAge(),
	)

	apiClient := moviedb.NewClient(&moviedb.Config{
		BaseURL:       cfg.MovieAPI.BaseURL,
		APIKey:        cfg.MovieAPI.APIKey,
		Timeout:       time.Duration(cfg.MovieAPI.TimeoutSeconds) * time.Second,
		RatePerMinute: cfg.MovieAPI.RatePerMinute,
	})

	pageFetcher := scraping.NewHTTPPageFetcher(
		time.Duration(cfg.Scraping.TimeoutSeconds)*time.Second,
		cfg.Scraping.UserAgent,
		cfg.Scraping.AcceptLanguage,
	)
	sources := make([]scraping.Source, 0, len(cfg.Scraping.Sources))
	quotas := make(map[string]int, len(cfg.Scraping.Sources))
	for _, sc := range cfg.Scraping.Sources {
		switch sc.Name {
		case "imdb":
			sources = append(sources, scraping.NewIMDbSource(pageFetcher, sc.BaseURL, sc.Priority))
		case "letterboxd":
			sources = append(sources, scraping.NewLetterboxdSource(pageFetcher, sc.BaseURL, sc.Priority))
		default:
			logger.GetLogger().WithField("source", sc.Name).Warn("Unknown scraping source in config - skipping")
			continue
		}
		quotas[sc.Name] = sc.RatePerMinute
	}
	dedup := cache.NewDedupCache(redisClient, dedupTTL)
	fetcher := scraping.NewRealtimeFetcher(
		sources,
		quotas,
		dedup,
		time.Duration(cfg.Scraping.TimeoutSeconds)*time.Second,
		pageFetcher,
	)

	prefetcher := usecase.NewPrefetchUsecase(
		instantCache,
		apiClient,
		fetcher,
		movieStore,
		cfg.Prefetch.PriorityQueueSize,
		cfg.Prefetch.GeneralQueueSize,
	)
	prefetcher.Start()

	searchUsecase := usecase.NewSearchUsecase(
		instantCache,
		apiClient,
		fetcher,
		prefetcher,
		searchEvents,
		time.Duration(cfg.MovieAPI.TimeoutSeconds)*time.Second,
	)

	searchHandler := httpHandler.NewSearchHandler(searchUsecase)
	router := server.InitiateRouter(searchHandler, cfg.App.SecretKey)

	// Periodic cache sweep.
	g.Go(func() error {
		ticker := time.NewTicker(time.Duration(cfg.Cache.SweepIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				sweepCtx, sweepCancel := context.WithTimeout(ctx, 30*time.Second)
				searchUsecase.Sweep(sweepCtx)
				sweepCancel()
			}
		}
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}
	logger.GetLogger().WithField("port", cfg.App.Port).Info("Starting application")
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	if err := searchUsecase.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Retrieval core shutdown reported errors")
	}
	if mongoDb != nil {
		_ = mongoDb.Disconnect(shutdownCtx)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if pubSubClient != nil {
		_ = pubSubClient.Close()
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}
