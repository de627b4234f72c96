// Package app wires providers, the durable cache and the aggregator from
// configuration. Every command builds its dependencies through it.
package app

import (
	"context"
	"time"
	_ "time/tzdata"

	"trendpulse/internal/aggregator"
	"trendpulse/internal/cache"
	"trendpulse/internal/config"
	"trendpulse/internal/db"
	"trendpulse/internal/job"
	"trendpulse/internal/metrics"
	"trendpulse/internal/provider"
	"trendpulse/internal/signal"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const redisKeyPrefix = "trendpulse:batch:"

var (
	initRedisFunc    = cache.InitRedis
	initPostgresFunc = db.InitPostgres
)

// App holds the long-lived components shared by the command entrypoints.
type App struct {
	Config  *config.Config
	Tracer  trace.Tracer
	Metrics *metrics.Recorder

	Cache   *cache.Durable
	Feed    *aggregator.Service
	Twitter *provider.TwitterProvider
	Scanner *job.ScannerJob
	Refresh *job.RefreshJob

	closers []func()
}

// Build constructs every component. A cache backend that cannot be reached
// degrades to the file store so the feed keeps working.
func Build(ctx context.Context, cfg *config.Config, tracer trace.Tracer, rec *metrics.Recorder) *App {
	if rec == nil {
		rec = metrics.New()
	}
	a := &App{Config: cfg, Tracer: tracer, Metrics: rec}

	store := a.openStore(ctx)
	a.Cache = cache.NewDurable(store, tracer, rec)

	observe := provider.WithObserver(rec)
	coingecko := provider.NewCoinGeckoProvider(tracer, cfg.CoinGeckoAPIKey, observe)

	alphaOpts := []provider.Option{observe}
	if cfg.AlphaEnrichDelayMs > 0 {
		alphaOpts = append(alphaOpts, provider.WithPace(time.Duration(cfg.AlphaEnrichDelayMs)*time.Millisecond))
	}
	alpha := provider.NewBinanceAlphaProvider(tracer, coingecko, alphaOpts...)
	trends := provider.NewGoogleTrendsProvider(tracer, cfg.Keywords.CryptoAllowList, observe)
	spot := provider.NewBinanceSpotProvider(tracer, observe)
	dex := provider.NewDexScreenerProvider(tracer, observe)

	var classifier signal.TextClassifier = signal.Lexicon{}
	if c := signal.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel); c != nil {
		classifier = c
	}
	a.Twitter = provider.NewTwitterProvider(tracer, cfg.TwitterBearerToken, classifier, observe)

	a.Feed = aggregator.NewService(tracer, aggregator.Deps{
		Market:   coingecko,
		Listing:  alpha,
		Interest: trends,
		Social:   a.Twitter,
		Spot:     spot,
		Cache:    a.Cache,
	}, AggregatorConfig(cfg), aggregator.WithObserver(rec))

	if cfg.ScannerEnabled {
		a.Scanner = job.NewScannerJob(tracer, dex, a.Cache, cfg.ScannerIntervalMins)
	}
	a.Refresh = job.NewRefreshJob(tracer, a.Feed, cfg.RefreshPollSecs)
	return a
}

// AggregatorConfig maps configuration onto the aggregator settings.
func AggregatorConfig(cfg *config.Config) aggregator.Config {
	loc := time.UTC
	if cfg.NewsTimezone != "" {
		if l, err := time.LoadLocation(cfg.NewsTimezone); err == nil {
			loc = l
		} else {
			log.Warn().Err(err).Str("tz", cfg.NewsTimezone).Msg("unknown NEWS_TIMEZONE, using UTC")
		}
	}
	return aggregator.Config{
		AlphaLimit:           cfg.AlphaEnrichLimit,
		SocialHashtags:       cfg.Keywords.SocialHashtags,
		SocialKeywords:       aggregator.HashtagKeywords(cfg.Keywords.SocialHashtags),
		NewsInterestKeywords: cfg.Keywords.NewsInterest,
		NewsSocialQueries:    cfg.Keywords.NewsSocial,
		MarketKeyed:          cfg.CoinGeckoAPIKey != "",
		Location:             loc,
	}
}

func (a *App) openStore(ctx context.Context) cache.Store {
	cfg := a.Config
	switch cfg.CacheBackend {
	case config.CacheMemory:
		return cache.NewMemoryStore()
	case config.CacheRedis:
		client, err := initRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			log.Error().Err(err).Msg("redis cache unavailable, falling back to file store")
			break
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return cache.NewRedisStore(client, redisKeyPrefix)
	case config.CachePostgres:
		pool, err := initPostgresFunc(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error().Err(err).Msg("postgres cache unavailable, falling back to file store")
			break
		}
		a.closers = append(a.closers, pool.Close)
		return cache.NewPostgresStore(pool, a.Tracer)
	}
	return cache.NewFileStore(cfg.DataDir)
}

// ScanRunner runs one lowcap scan on demand.
type ScanRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

// ScanRunner returns the scanner, or nil when SCANNER_ENABLED is off.
func (a *App) ScanRunner() ScanRunner {
	if a.Scanner == nil {
		return nil
	}
	return a.Scanner
}

// Close releases backend connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
