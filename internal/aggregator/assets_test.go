package aggregator

import (
	"context"
	"testing"

	"trendpulse/internal/cache"
	"trendpulse/internal/domain"
	"trendpulse/internal/provider"
	"trendpulse/internal/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nineCloses(base float64) []float64 {
	out := make([]float64, 9)
	for i := range out {
		out[i] = base + float64(i)
	}
	return out
}

func trendingCoins() []provider.MarketCoin {
	return []provider.MarketCoin{
		{
			ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Price: 60000, Change24h: 12.346,
			MarketCapRank: 1, TrendScore: 98, Sparkline: nineCloses(60000),
			MarketCap: 1.2e12, Volume: 2e9,
		},
		{
			ID: "pepe", Name: "Pepe", Symbol: "PEPE", Price: 0.00001, Change24h: -15,
			TrendScore: 93,
		},
	}
}

func TestTrendingMergesSecondarySignals(t *testing.T) {
	h := newHarness()
	h.market.trending = trendingCoins()
	h.interest.byKeyword["BTC"] = provider.KeywordInterest{Keyword: "BTC", Score: 70, Rising: true}
	h.interest.daily = []provider.DailyTrend{{Title: "Pepe memecoin rally", RelatedQueries: []string{"pepe price"}}}
	h.social.available = true
	h.social.byQuery["$BTC"] = provider.Mention{Query: "$BTC", Mentions: 42, Sentiment: domain.SentimentBullish}

	batch := h.service(Config{}).Trending(context.Background())

	require.Equal(t, domain.ProvenanceLive, batch.Provenance)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, [][]string{{"BTC", "PEPE"}}, h.interest.keywords)
	assert.Equal(t, 1, h.social.count("sentiment"))

	btc := batch.Items[0]
	assert.Equal(t, "bitcoin", btc.ID)
	assert.Equal(t, 12.35, btc.Change24h)
	assert.Equal(t, []domain.TrendSource{domain.SourceMarket, domain.SourceSearch, domain.SourceSocial}, btc.TrendSources)
	assert.Equal(t, signal.TrendScore(12.346, 2e9), btc.TrendScore)
	assert.Equal(t, nineCloses(60000), btc.Sparkline)
	assert.Equal(t, domain.SentimentBullish, btc.Sentiment)
	assert.Equal(t, domain.AuthenticityVerified, btc.Authenticity)
	assert.True(t, btc.HasWhaleAlert)
	assert.Equal(t, 10, btc.MarketCapBucket)
	assert.Equal(t, "Binance", btc.ExchangeLabel)
	assert.Equal(t, "Bitcoin (BTC) is #1 on CoinGecko trending.\nHot on Google Trends (score 70/100).\n42 recent mentions on X.\nPrice up 12.3% in 24h.", btc.Summary)

	pepe := batch.Items[1]
	assert.Equal(t, []domain.TrendSource{domain.SourceMarket, domain.SourceSearch}, pepe.TrendSources)
	assert.Equal(t, domain.SentimentBearish, pepe.Sentiment)
	assert.Equal(t, domain.AuthenticityFUD, pepe.Authenticity)
	assert.Equal(t, 1, pepe.MarketCapBucket)
	assert.False(t, pepe.HasWhaleAlert)
	assert.Equal(t, "DEX", pepe.ExchangeLabel)
	assert.Equal(t, signal.TrendScore(-15, 93), pepe.TrendScore)
	require.Len(t, pepe.Sparkline, signal.SparklinePoints)
	for _, v := range pepe.Sparkline {
		assert.InDelta(t, 0.00001, v, 1e-12)
	}

	stored, err := h.store.Load(context.Background(), cache.KindTrending)
	require.NoError(t, err)
	assert.Equal(t, batch.Items, stored)

	require.Len(t, h.events.events, 1)
	assert.Equal(t, aggregationEvent{kind: "trending", provenance: "live", items: 2}, h.events.events[0])
}

func TestTrendingSkipsUnavailableSocial(t *testing.T) {
	h := newHarness()
	h.market.trending = trendingCoins()
	h.social.available = false

	batch := h.service(Config{}).Trending(context.Background())

	require.Len(t, batch.Items, 2)
	assert.Zero(t, h.social.count("sentiment"))
	assert.Equal(t, []domain.TrendSource{domain.SourceMarket}, batch.Items[0].TrendSources)
}

func TestTrendingPrimaryEmptyServesCacheWithoutSecondaryCalls(t *testing.T) {
	h := newHarness()
	h.social.available = true
	cached := []domain.NormalizedAsset{{
		ID: "old", Name: "Old", Symbol: "OLD", TrendSources: []domain.TrendSource{domain.SourceMarket},
		TrendScore: 40, Sparkline: []float64{}, Sentiment: domain.SentimentNeutral,
		Authenticity: domain.AuthenticityRumor, MarketCapBucket: 2,
	}}
	require.NoError(t, h.store.Save(context.Background(), cache.KindTrending, cached))

	batch := h.service(Config{}).Trending(context.Background())

	assert.Equal(t, domain.ProvenanceCached, batch.Provenance)
	assert.Equal(t, cached, batch.Items)
	assert.Equal(t, 1, h.market.count("trending"))
	assert.Zero(t, h.secondaryCalls())
}

func TestPrimaryEmptyWithoutCacheIsEmpty(t *testing.T) {
	h := newHarness()
	svc := h.service(Config{})

	for _, batch := range []domain.AssetBatch{
		svc.Trending(context.Background()),
		svc.Binance(context.Background()),
		svc.Alpha(context.Background()),
	} {
		assert.Equal(t, domain.ProvenanceEmpty, batch.Provenance)
		assert.NotNil(t, batch.Items)
		assert.Empty(t, batch.Items)
	}
	assert.Zero(t, h.secondaryCalls())
}

func TestTrendingDuplicateIDFirstWins(t *testing.T) {
	h := newHarness()
	coins := trendingCoins()
	dup := coins[0]
	dup.Name = "Bitcoin Copy"
	h.market.trending = append(coins, dup)

	batch := h.service(Config{}).Trending(context.Background())

	require.Len(t, batch.Items, 2)
	assert.Equal(t, "Bitcoin", batch.Items[0].Name)
}

func TestBinanceMergesSpotAndSuppressesDuplicateGainer(t *testing.T) {
	h := newHarness()
	h.market.volume = []provider.MarketCoin{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Price: 60000, Change24h: 1, MarketCapRank: 1, TrendScore: 95, MarketCap: 1.2e12, Volume: 3e10},
		{ID: "solana", Name: "Solana", Symbol: "SOL", Price: 150, Change24h: 6, MarketCapRank: 5, TrendScore: 91, MarketCap: 7e10, Volume: 4e9},
	}
	h.spot.tickers = []provider.Ticker{{Symbol: "BTCUSDT", Base: "BTC"}, {Symbol: "SOLUSDT", Base: "SOL"}}
	h.spot.gainers = []provider.Ticker{
		{Symbol: "SOLUSDT", Base: "SOL", LastPrice: 151, ChangePct: 30, QuoteVolume: 9e8},
		{Symbol: "WIFUSDT", Base: "WIF", LastPrice: 2.5, ChangePct: 25, QuoteVolume: 3e8},
	}
	closes := make([]float64, 24)
	for i := range closes {
		closes[i] = 2 + float64(i)/100
	}
	h.spot.klines["WIF"] = closes

	batch := h.service(Config{}).Binance(context.Background())

	require.Equal(t, domain.ProvenanceLive, batch.Provenance)
	ids := make([]string, 0, len(batch.Items))
	for _, item := range batch.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"bitcoin", "solana", "binance-wif"}, ids)

	sol := batch.Items[1]
	assert.Equal(t, "Solana", sol.Name)
	assert.Equal(t, 150.0, sol.Price)
	assert.Equal(t, []domain.TrendSource{domain.SourceMarket, domain.SourceListing}, sol.TrendSources)
	assert.True(t, sol.HasWhaleAlert)
	assert.Equal(t, "Solana (SOL) is #2 by volume.\nMarket cap rank: #5\nPrice up 6.0% in 24h.", sol.Summary)

	wif := batch.Items[2]
	assert.Equal(t, closes, wif.Sparkline)
	assert.Equal(t, []domain.TrendSource{domain.SourceListing}, wif.TrendSources)
	assert.Equal(t, domain.SentimentBullish, wif.Sentiment)
	assert.Equal(t, "Binance", wif.ExchangeLabel)
	assert.Equal(t, 2, h.spot.count("klines"))

	stored, err := h.store.Load(context.Background(), cache.KindBinanceFomo)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestBinanceWithoutSpotClient(t *testing.T) {
	h := newHarness()
	h.market.volume = []provider.MarketCoin{{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Price: 60000, TrendScore: 95}}
	svc := NewService(testTracer(), Deps{Market: h.market, Listing: h.listing}, Config{}, WithRand(halfRand{}))

	batch := svc.Binance(context.Background())

	require.Len(t, batch.Items, 1)
	assert.Equal(t, []domain.TrendSource{domain.SourceMarket}, batch.Items[0].TrendSources)
	assert.Len(t, batch.Items[0].Sparkline, signal.SparklinePoints)
}

func TestAlphaEnriched(t *testing.T) {
	h := newHarness()
	h.listing.markets = []provider.AlphaMarket{
		{
			AlphaToken: provider.AlphaToken{Symbol: "KOGE", Name: "Koge", ContractAddress: "0xe6df05ce8c8301223373cf5b969afcb1498c5528", Chain: "BSC"},
			Price:      45.2, Change24h: 12, MarketCap: 2e8, Volume: 9e5, Sparkline: nineCloses(45),
		},
		{AlphaToken: provider.AlphaToken{Symbol: "ZZZ", Name: "Sleepy", Chain: "Solana"}},
	}
	for _, m := range h.listing.markets {
		h.listing.tokens = append(h.listing.tokens, m.AlphaToken)
	}

	batch := h.service(Config{}).Alpha(context.Background())

	require.Equal(t, domain.ProvenanceLive, batch.Provenance)
	require.Len(t, batch.Items, 2)

	koge := batch.Items[0]
	assert.Equal(t, "0xe6df05ce8c8301223373cf5b969afcb1498c5528", koge.ID)
	assert.Equal(t, "Alpha (BSC)", koge.ExchangeLabel)
	assert.Equal(t, []domain.TrendSource{domain.SourceListing}, koge.TrendSources)
	assert.Equal(t, signal.TrendScore(12, 9e5), koge.TrendScore)
	assert.Equal(t, domain.SentimentBullish, koge.Sentiment)
	assert.Equal(t, domain.AuthenticityRumor, koge.Authenticity)
	assert.True(t, koge.HasWhaleAlert)
	assert.Equal(t, 7, koge.MarketCapBucket)
	assert.Contains(t, koge.Summary, "Contract: 0xe6df05ce...8c5528")
	assert.Contains(t, koge.Summary, "Price: $45.2000")

	sleepy := batch.Items[1]
	assert.Equal(t, "alpha-1", sleepy.ID)
	assert.Equal(t, 87, sleepy.TrendScore)
	assert.Equal(t, 1, sleepy.MarketCapBucket)
	assert.Contains(t, sleepy.Summary, "No price data yet")
	require.Len(t, sleepy.Sparkline, signal.SparklinePoints)
	assert.InDelta(t, 0.001, sleepy.Sparkline[0], 1e-12)

	assert.Equal(t, 1, h.listing.count("tokens"))
	assert.Equal(t, 1, h.listing.count("markets"))
	stored, err := h.store.Load(context.Background(), cache.KindAlphaBinance)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestAlphaBasicListFallback(t *testing.T) {
	h := newHarness()
	for i := 0; i < 20; i++ {
		h.listing.tokens = append(h.listing.tokens, provider.AlphaToken{
			Symbol: "T", Name: "Token", ContractAddress: string(rune('a'+i)) + "0x", Chain: "BSC",
		})
	}

	batch := h.service(Config{}).Alpha(context.Background())

	assert.Equal(t, domain.ProvenanceFallback, batch.Provenance)
	require.Len(t, batch.Items, 15)
	assert.Zero(t, batch.Items[0].Price)
	assert.Equal(t, 90, batch.Items[0].TrendScore)
	assert.Equal(t, 50, batch.Items[14].TrendScore)
	assert.Equal(t, 1, h.listing.count("tokens"))
	assert.Equal(t, 1, h.listing.count("markets"))

	_, err := h.store.Load(context.Background(), cache.KindAlphaBinance)
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestAlphaServesCacheWhenListingDown(t *testing.T) {
	h := newHarness()
	cached := []domain.NormalizedAsset{{
		ID: "0xabc", Name: "Cached", Symbol: "CCH", TrendSources: []domain.TrendSource{domain.SourceListing},
		TrendScore: 60, Sparkline: []float64{1}, Sentiment: domain.SentimentNeutral,
		Authenticity: domain.AuthenticityRumor, MarketCapBucket: 1,
	}}
	require.NoError(t, h.store.Save(context.Background(), cache.KindAlphaBinance, cached))

	batch := h.service(Config{}).Alpha(context.Background())

	assert.Equal(t, domain.ProvenanceCached, batch.Provenance)
	assert.Equal(t, cached, batch.Items)
	assert.Equal(t, 1, h.listing.count("tokens"))
	assert.Zero(t, h.listing.count("markets"))
}

func TestAssetScenarioSharpDropWithoutVolume(t *testing.T) {
	h := newHarness()
	h.market.trending = []provider.MarketCoin{{ID: "x", Name: "Xcoin", Symbol: "XC", Price: 1, Change24h: -15}}

	item := h.service(Config{}).Trending(context.Background()).Items[0]

	assert.Equal(t, domain.SentimentBearish, item.Sentiment)
	assert.Equal(t, domain.AuthenticityFUD, item.Authenticity)
	assert.Equal(t, 1, item.MarketCapBucket)
	assert.GreaterOrEqual(t, item.TrendScore, 1)
}

func TestInDailyTrends(t *testing.T) {
	trends := []provider.DailyTrend{{Title: "Why is SOL up today", RelatedQueries: []string{"solana etf"}}}

	assert.True(t, inDailyTrends(trends, "Solana", "SOL"))
	assert.True(t, inDailyTrends(trends, "Nothing", "sol"))
	assert.False(t, inDailyTrends(trends, "Pepe", "PEPE"))
	assert.False(t, inDailyTrends(trends, "Up", "UPX"))
}
