// Package aggregator merges provider data into normalized batches and falls
// back to the last-known-good cache when the primary source is empty.
package aggregator

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"trendpulse/internal/cache"
	"trendpulse/internal/domain"
	"trendpulse/internal/provider"
	"trendpulse/internal/signal"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	KindSocial = "social_sentiment"
	KindNews   = "breaking_news"
)

type MarketReader interface {
	Trending(ctx context.Context) []provider.MarketCoin
	TopByVolume(ctx context.Context) []provider.MarketCoin
	Ping(ctx context.Context) error
}

type ListingReader interface {
	Tokens(ctx context.Context) []provider.AlphaToken
	PriceTokens(ctx context.Context, tokens []provider.AlphaToken) []provider.AlphaMarket
}

type InterestReader interface {
	Interest(ctx context.Context, keywords []string) []provider.KeywordInterest
	CryptoDailyTrends(ctx context.Context) []provider.DailyTrend
	Ping(ctx context.Context) error
}

type SocialReader interface {
	Available() bool
	SocialSentiment(ctx context.Context, queries []string) []provider.Mention
}

type SpotReader interface {
	Tickers(ctx context.Context) []provider.Ticker
	TopGainers(ctx context.Context, limit int) []provider.Ticker
	Klines(ctx context.Context, base, interval string, limit int) []float64
}

// Observer receives one event per finished aggregation.
type Observer interface {
	ObserveAggregation(kind, provenance string, items int, elapsed time.Duration)
}

// Deps holds the provider clients. Social and Spot may be nil.
type Deps struct {
	Market   MarketReader
	Listing  ListingReader
	Interest InterestReader
	Social   SocialReader
	Spot     SpotReader
	Cache    *cache.Durable
}

type Config struct {
	AlphaLimit           int
	GainerLimit          int
	NewsTarget           int
	NewsDailyTrendLimit  int // 0 lets the daily trends stage fill the target
	NewsAlphaLimit       int // 0 lets the alpha listings stage fill the target
	SocialHashtags       []string
	SocialKeywords       []string
	NewsInterestKeywords []string
	NewsSocialQueries    []string
	MarketKeyed          bool
	Location             *time.Location
}

var (
	defaultSocialHashtags       = []string{"#Bitcoin", "#Ethereum", "#Solana", "#BNB", "#Memecoin"}
	defaultNewsInterestKeywords = []string{"memecoin", "AI agent crypto", "DePIN", "RWA crypto", "Binance Alpha"}
	defaultNewsSocialQueries    = []string{"lowcap gem", "binance alpha", "memecoin pump"}
	hardcodedSocial             = []string{"#Bitcoin", "#Ethereum", "#Solana"}
)

type Option func(*Service)

// WithRand sets the source used for placeholder sparklines.
func WithRand(r signal.RandSource) Option {
	return func(s *Service) { s.rnd = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithIDs replaces the news item id generator.
func WithIDs(next func() string) Option {
	return func(s *Service) { s.newID = next }
}

type Service struct {
	tracer trace.Tracer
	deps   Deps
	cfg    Config

	mu       sync.Mutex
	rnd      signal.RandSource
	now      func() time.Time
	newID    func() string
	observer Observer
}

func NewService(tracer trace.Tracer, deps Deps, cfg Config, opts ...Option) *Service {
	if cfg.AlphaLimit <= 0 {
		cfg.AlphaLimit = 15
	}
	if cfg.GainerLimit <= 0 {
		cfg.GainerLimit = 5
	}
	if cfg.NewsTarget <= 0 {
		cfg.NewsTarget = 5
	}
	if len(cfg.SocialHashtags) == 0 {
		cfg.SocialHashtags = defaultSocialHashtags
	}
	if len(cfg.SocialKeywords) == 0 {
		cfg.SocialKeywords = HashtagKeywords(cfg.SocialHashtags)
	}
	if len(cfg.NewsInterestKeywords) == 0 {
		cfg.NewsInterestKeywords = defaultNewsInterestKeywords
	}
	if len(cfg.NewsSocialQueries) == 0 {
		cfg.NewsSocialQueries = defaultNewsSocialQueries
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Service{
		tracer: tracer,
		deps:   deps,
		cfg:    cfg,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// socialReady reports whether the optional social client can be used.
func (s *Service) socialReady() bool {
	return s.deps.Social != nil && s.deps.Social.Available()
}

func (s *Service) start(ctx context.Context, kind string) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "aggregator."+kind, trace.WithAttributes(attribute.String("kind", kind)))
	return ctx, span, time.Now()
}

func (s *Service) finish(span trace.Span, kind string, provenance domain.Provenance, items int, started time.Time) {
	span.SetAttributes(attribute.String("provenance", string(provenance)), attribute.Int("items", items))
	span.End()
	if s.observer != nil {
		s.observer.ObserveAggregation(kind, string(provenance), items, time.Since(started))
	}
	log.Info().Str("kind", kind).Str("provenance", string(provenance)).Int("items", items).Msg("aggregation finished")
}

// fromCache serves the last-known-good batch for kind.
func (s *Service) fromCache(ctx context.Context, kind cache.Kind) domain.AssetBatch {
	log.Warn().Str("kind", string(kind)).Msg("primary provider empty, serving cache")
	items := []domain.NormalizedAsset{}
	if s.deps.Cache != nil {
		items = s.deps.Cache.Read(ctx, kind)
	}
	if len(items) == 0 {
		return domain.AssetBatch{Items: []domain.NormalizedAsset{}, Provenance: domain.ProvenanceEmpty}
	}
	return domain.AssetBatch{Items: items, Provenance: domain.ProvenanceCached}
}

func (s *Service) store(ctx context.Context, kind cache.Kind, items []domain.NormalizedAsset) {
	if s.deps.Cache != nil {
		s.deps.Cache.Write(ctx, kind, items)
	}
}

// dedupAssets keeps the first record for every id.
func dedupAssets(items []domain.NormalizedAsset) []domain.NormalizedAsset {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.NormalizedAsset, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}

func dedupSocial(items []domain.SocialSignal) []domain.SocialSignal {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.SocialSignal, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(item.Hashtag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
