package aggregator

import (
	"context"
	"errors"
	"sync"
	"time"

	"trendpulse/internal/cache"
	"trendpulse/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

type callLog struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *callLog) hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[name]++
}

func (c *callLog) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

func (c *callLog) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

type fakeMarket struct {
	callLog
	trending []provider.MarketCoin
	volume   []provider.MarketCoin
	pingErr  error
}

func (f *fakeMarket) Trending(ctx context.Context) []provider.MarketCoin {
	f.hit("trending")
	return f.trending
}

func (f *fakeMarket) TopByVolume(ctx context.Context) []provider.MarketCoin {
	f.hit("volume")
	return f.volume
}

func (f *fakeMarket) Ping(ctx context.Context) error {
	f.hit("ping")
	return f.pingErr
}

type fakeListing struct {
	callLog
	tokens  []provider.AlphaToken
	markets []provider.AlphaMarket
}

func (f *fakeListing) Tokens(ctx context.Context) []provider.AlphaToken {
	f.hit("tokens")
	return f.tokens
}

func (f *fakeListing) PriceTokens(ctx context.Context, tokens []provider.AlphaToken) []provider.AlphaMarket {
	f.hit("markets")
	if len(f.markets) > len(tokens) {
		return f.markets[:len(tokens)]
	}
	return f.markets
}

type fakeInterest struct {
	callLog
	byKeyword map[string]provider.KeywordInterest
	daily     []provider.DailyTrend
	keywords  [][]string
}

func (f *fakeInterest) Interest(ctx context.Context, keywords []string) []provider.KeywordInterest {
	f.hit("interest")
	f.mu.Lock()
	f.keywords = append(f.keywords, keywords)
	f.mu.Unlock()
	var out []provider.KeywordInterest
	for _, k := range keywords {
		if in, ok := f.byKeyword[k]; ok {
			out = append(out, in)
		}
	}
	return out
}

func (f *fakeInterest) CryptoDailyTrends(ctx context.Context) []provider.DailyTrend {
	f.hit("daily")
	return f.daily
}

func (f *fakeInterest) Ping(ctx context.Context) error {
	f.hit("ping")
	return nil
}

type fakeSocial struct {
	callLog
	available bool
	byQuery   map[string]provider.Mention
}

func (f *fakeSocial) Available() bool { return f.available }

func (f *fakeSocial) SocialSentiment(ctx context.Context, queries []string) []provider.Mention {
	f.hit("sentiment")
	var out []provider.Mention
	for _, q := range queries {
		if m, ok := f.byQuery[q]; ok {
			out = append(out, m)
		}
	}
	return out
}

type fakeSpot struct {
	callLog
	tickers []provider.Ticker
	gainers []provider.Ticker
	klines  map[string][]float64
}

func (f *fakeSpot) Tickers(ctx context.Context) []provider.Ticker {
	f.hit("tickers")
	return f.tickers
}

func (f *fakeSpot) TopGainers(ctx context.Context, limit int) []provider.Ticker {
	f.hit("gainers")
	return f.gainers
}

func (f *fakeSpot) Klines(ctx context.Context, base, interval string, limit int) []float64 {
	f.hit("klines")
	return f.klines[base]
}

// halfRand makes every placeholder sample equal to its base price.
type halfRand struct{}

func (halfRand) Float64() float64 { return 0.5 }

type aggregationEvent struct {
	kind       string
	provenance string
	items      int
}

type eventRecorder struct {
	mu     sync.Mutex
	events []aggregationEvent
}

func (r *eventRecorder) ObserveAggregation(kind, provenance string, items int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, aggregationEvent{kind: kind, provenance: provenance, items: items})
}

type harness struct {
	market   *fakeMarket
	listing  *fakeListing
	interest *fakeInterest
	social   *fakeSocial
	spot     *fakeSpot
	store    *cache.MemoryStore
	events   *eventRecorder
}

func newHarness() *harness {
	return &harness{
		market:   &fakeMarket{},
		listing:  &fakeListing{},
		interest: &fakeInterest{byKeyword: map[string]provider.KeywordInterest{}},
		social:   &fakeSocial{byQuery: map[string]provider.Mention{}},
		spot:     &fakeSpot{klines: map[string][]float64{}},
		store:    cache.NewMemoryStore(),
		events:   &eventRecorder{},
	}
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

var fixedNow = time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)

func (h *harness) service(cfg Config) *Service {
	ids := 0
	return NewService(testTracer(), Deps{
		Market:   h.market,
		Listing:  h.listing,
		Interest: h.interest,
		Social:   h.social,
		Spot:     h.spot,
		Cache:    cache.NewDurable(h.store, testTracer(), nil),
	}, cfg,
		WithRand(halfRand{}),
		WithClock(func() time.Time { return fixedNow }),
		WithObserver(h.events),
		WithIDs(func() string {
			ids++
			return string(rune('a' + ids - 1))
		}),
	)
}

func (h *harness) secondaryCalls() int {
	return h.interest.total() + h.social.total() + h.spot.total()
}

var errDown = errors.New("down")
