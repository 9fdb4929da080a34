package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/jonathan/job-extractor/internal/cache"
	"github.com/jonathan/job-extractor/internal/config"
	"github.com/jonathan/job-extractor/internal/db"
	"github.com/jonathan/job-extractor/internal/extractor"
	"github.com/jonathan/job-extractor/internal/fetch"
	"github.com/jonathan/job-extractor/internal/firecrawl"
	"github.com/jonathan/job-extractor/internal/ingestion"
	"github.com/jonathan/job-extractor/internal/llm"
	"github.com/jonathan/job-extractor/internal/observability"
	"github.com/jonathan/job-extractor/internal/scraper"
)

// app holds the wired pipeline for one process.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	metrics   *observability.Metrics
	scraper   *scraper.Service
	extractor *extractor.Extractor
	store     *db.DB
	closers   []func()
}

// newApp builds cache, clients, scraper and extractor from cfg. The database
// is connected only when withStore is set and a URL is configured.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, withStore bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(a.registry)
	if err != nil {
		return nil, err
	}
	a.metrics = metrics

	store, err := a.buildCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	store = metrics.InstrumentCache(store)

	fcOpts := firecrawl.DefaultOptions()
	fcOpts.APIKey = cfg.Firecrawl.APIKey
	fcOpts.BaseURL = cfg.Firecrawl.BaseURL
	fcOpts.Timeout = cfg.Firecrawl.Timeout
	fcOpts.WaitFor = cfg.Firecrawl.WaitFor
	fcOpts.OnlyMainContent = cfg.Firecrawl.OnlyMainContent
	fcOpts.MaxAttempts = cfg.Firecrawl.MaxAttempts
	fcOpts.BaseDelay = cfg.Firecrawl.BaseDelay
	fcOpts.MaxDelay = cfg.Firecrawl.MaxDelay
	fcOpts.Cache = store
	fcOpts.Logger = logger
	primary := firecrawl.New(fcOpts)
	if !primary.Enabled() {
		logger.Warn("FIRECRAWL_API_KEY not set; using fallback extraction only")
	}

	fallback, err := a.buildFallback(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.scraper, err = scraper.New(scraper.Options{
		Primary:         primary,
		Fallback:        fallback,
		Cache:           store,
		DisableFallback: cfg.Fallback.Disabled,
		Metrics:         metrics,
		Logger:          logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.extractor = extractor.New(a.scraper, cfg.Batch.MaxConcurrency, logger)

	if withStore && cfg.DB.URL != "" {
		database, err := db.Connect(ctx, cfg.DB.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = database
		a.closers = append(a.closers, database.Close)
		if cfg.DB.AutoMigrate {
			if err := database.EnsureSchema(ctx); err != nil {
				a.Close()
				return nil, err
			}
		}
	}
	return a, nil
}

func (a *app) buildCache(ctx context.Context) (cache.Store, error) {
	if a.cfg.Cache.Backend != config.CacheRedis {
		return cache.NewMemoryStore(a.cfg.Cache.MaxEntries, a.cfg.Cache.TTL), nil
	}
	store, err := cache.NewRedisStore(ctx, a.cfg.Cache.RedisURL, a.cfg.Cache.TTL, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect cache: %w", err)
	}
	a.closers = append(a.closers, func() { _ = store.Close() })
	return store, nil
}

func (a *app) buildFallback(ctx context.Context) (*ingestion.Client, error) {
	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = a.cfg.Fallback.Timeout
	fetchOpts.UserAgent = a.cfg.Fallback.UserAgent
	fetchOpts.MaxRedirects = a.cfg.Fallback.MaxRedirects
	fetchOpts.Limiter = fetch.NewHostLimiter(a.cfg.Fallback.HostRate, a.cfg.Fallback.HostBurst)

	opts := &ingestion.Options{
		Fetch:   fetchOpts,
		PingURL: a.cfg.Fallback.PingURL,
		Logger:  a.logger,
	}
	if a.cfg.LLM.Enabled {
		llmCfg := llm.DefaultConfig()
		llmCfg.Models[llm.TierStandard] = a.cfg.LLM.Model
		llmCfg.Temperature = a.cfg.LLM.Temperature
		client, err := llm.NewGeminiClient(ctx, llmCfg, a.cfg.LLM.APIKey)
		if err != nil {
			return nil, fmt.Errorf("create llm client: %w", err)
		}
		opts.LLM = client
		a.closers = append(a.closers, func() { _ = client.Close() })
	}
	return ingestion.New(opts), nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
