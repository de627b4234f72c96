package aggregator

import (
	"context"
	"testing"

	"trendpulse/internal/domain"
	"trendpulse/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headlines(items []domain.NewsItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Headline)
	}
	return out
}

func TestBreakingNewsStopsWhenFirstStageFillsTarget(t *testing.T) {
	h := newHarness()
	h.social.available = true
	h.interest.daily = []provider.DailyTrend{
		{Title: "bitcoin halving", Traffic: "200K+", RelatedQueries: []string{"btc", "halving date", "bitcoin price", "extra"}, TimeAgo: "3h ago"},
		{Title: "solana etf", Traffic: "50K+"},
		{Title: "ignored", Traffic: "10K+"},
	}

	batch := h.service(Config{NewsTarget: 2}).BreakingNews(context.Background())

	require.Len(t, batch.Items, 2)
	assert.Equal(t, domain.ProvenanceLive, batch.Provenance)
	assert.Equal(t, []string{"bitcoin halving", "solana etf"}, headlines(batch.Items))

	first := batch.Items[0]
	assert.Equal(t, "gd-a", first.ID)
	assert.Equal(t, domain.NewsSourceSearch, first.Source)
	assert.Equal(t, "200K+ searches on Google. Related: btc, halving date, bitcoin price", first.Impact)
	assert.Equal(t, "3h ago", first.TimeLabel)
	assert.Equal(t, "50K+ searches on Google. Related: N/A", batch.Items[1].Impact)
	assert.Equal(t, "14:30", batch.Items[1].TimeLabel)

	assert.Equal(t, 1, h.interest.count("daily"))
	assert.Zero(t, h.interest.count("interest"))
	assert.Zero(t, h.listing.total())
	assert.Zero(t, h.market.total())
	assert.Zero(t, h.social.total())
}

func TestBreakingNewsDailyTrendsFillDefaultTarget(t *testing.T) {
	h := newHarness()
	h.social.available = true
	for _, title := range []string{"t1", "t2", "t3", "t4", "t5", "t6"} {
		h.interest.daily = append(h.interest.daily, provider.DailyTrend{Title: title, Traffic: "20K+"})
	}
	h.listing.tokens = []provider.AlphaToken{{Symbol: "ONE", Name: "One"}}
	h.market.trending = []provider.MarketCoin{{ID: "pepe", Name: "Pepe", Symbol: "PEPE"}}

	batch := h.service(Config{}).BreakingNews(context.Background())

	require.Len(t, batch.Items, 5)
	assert.Equal(t, []string{"t1", "t2", "t3", "t4", "t5"}, headlines(batch.Items))
	assert.Equal(t, 1, h.interest.count("daily"))
	assert.Zero(t, h.interest.count("interest"))
	assert.Zero(t, h.listing.total())
	assert.Zero(t, h.market.total())
	assert.Zero(t, h.social.total())
}

func TestBreakingNewsStageLimits(t *testing.T) {
	h := newHarness()
	for _, title := range []string{"t1", "t2", "t3"} {
		h.interest.daily = append(h.interest.daily, provider.DailyTrend{Title: title, Traffic: "1"})
	}
	for _, sym := range []string{"ONE", "TWO", "THREE", "FOUR"} {
		h.listing.tokens = append(h.listing.tokens, provider.AlphaToken{Symbol: sym, Name: sym, Chain: "BSC"})
	}
	h.interest.byKeyword["DePIN"] = provider.KeywordInterest{Keyword: "DePIN", Score: 70}

	batch := h.service(Config{NewsDailyTrendLimit: 2, NewsAlphaLimit: 2}).BreakingNews(context.Background())

	require.Len(t, batch.Items, 5)
	assert.Equal(t, []string{
		"t1",
		"t2",
		"FOUR (FOUR) added to Binance Alpha on BSC",
		"THREE (THREE) added to Binance Alpha on BSC",
		`Google Trends: "DePIN" reached interest score 70/100 over the last 7 days`,
	}, headlines(batch.Items))
	assert.Zero(t, h.market.total())
}

func TestBreakingNewsTargetIsHardCap(t *testing.T) {
	h := newHarness()
	h.interest.daily = []provider.DailyTrend{{Title: "a1", Traffic: "1"}, {Title: "a2", Traffic: "2"}}
	for _, sym := range []string{"ONE", "TWO", "THREE", "FOUR"} {
		h.listing.tokens = append(h.listing.tokens, provider.AlphaToken{
			Symbol: sym, Name: sym, Chain: "BSC", ContractAddress: "0x1234567890abcdef1234",
		})
	}

	batch := h.service(Config{}).BreakingNews(context.Background())

	require.Len(t, batch.Items, 5)
	assert.Equal(t, []string{
		"a1",
		"a2",
		"FOUR (FOUR) added to Binance Alpha on BSC",
		"THREE (THREE) added to Binance Alpha on BSC",
		"TWO (TWO) added to Binance Alpha on BSC",
	}, headlines(batch.Items))
	assert.Contains(t, batch.Items[2].Impact, "Contract: 0x123456...ef1234")
	assert.Zero(t, h.interest.count("interest"))
	assert.Zero(t, h.market.total())
}

func TestBreakingNewsCascadeReachesLaterStages(t *testing.T) {
	h := newHarness()
	h.interest.byKeyword["memecoin"] = provider.KeywordInterest{Keyword: "memecoin", Score: 40, Rising: true}
	h.interest.byKeyword["DePIN"] = provider.KeywordInterest{Keyword: "DePIN", Score: 70}
	h.interest.byKeyword["RWA crypto"] = provider.KeywordInterest{Keyword: "RWA crypto", Score: 0}
	h.market.trending = []provider.MarketCoin{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", MarketCapRank: 1, Change24h: 2},
		{ID: "pepe", Name: "Pepe", Symbol: "PEPE", Change24h: 20},
		{ID: "tiny", Name: "Tiny", Symbol: "TNY", MarketCapRank: 300, Change24h: -12},
	}
	h.social.available = true
	h.social.byQuery["lowcap gem"] = provider.Mention{
		Query: "lowcap gem", Mentions: 12, Sentiment: domain.SentimentBullish,
		Tweets: []provider.Tweet{{ID: "123", Text: "found a lowcap gem", Author: "degen", CreatedAt: "2026-03-01T09:15:00Z", Likes: 7, Retweets: 2}},
	}

	batch := h.service(Config{}).BreakingNews(context.Background())

	require.Len(t, batch.Items, 5)
	ids := make([]string, 0, 5)
	for _, item := range batch.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"gi-a", "gi-b", "cg-c", "cg-d", "t-123"}, ids)

	assert.Equal(t, `Google Trends: "DePIN" reached interest score 70/100 over the last 7 days`, batch.Items[0].Headline)
	assert.Contains(t, batch.Items[0].Recommendation, "Sentiment: Neutral")
	assert.Contains(t, batch.Items[1].Recommendation, "Sentiment: Bullish")

	assert.Equal(t, "Lowcap alert: Pepe (PEPE) is top trending, price up 20.0% (24h)", batch.Items[2].Headline)
	assert.Contains(t, batch.Items[2].Impact, "#Unranked")
	assert.Contains(t, batch.Items[2].Recommendation, "Strong pump")
	assert.Contains(t, batch.Items[3].Impact, "#300")
	assert.Contains(t, batch.Items[3].Recommendation, "Heavy dump")

	tweet := batch.Items[4]
	assert.Equal(t, domain.NewsSourceSocial, tweet.Source)
	assert.Equal(t, "found a lowcap gem", tweet.Headline)
	assert.Equal(t, "7 likes, 2 retweets, @degen", tweet.Impact)
	assert.Equal(t, "X sentiment: Bullish. 12 lowcap mentions found.", tweet.Recommendation)
	assert.Equal(t, "09:15", tweet.TimeLabel)

	assert.Equal(t, [][]string{defaultNewsInterestKeywords}, h.interest.keywords)
}

func TestBreakingNewsEmpty(t *testing.T) {
	h := newHarness()

	batch := h.service(Config{}).BreakingNews(context.Background())

	assert.Equal(t, domain.ProvenanceEmpty, batch.Provenance)
	assert.NotNil(t, batch.Items)
	assert.Empty(t, batch.Items)
	assert.Zero(t, h.social.total())
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo", 10))
	assert.Equal(t, "hé", truncateRunes("héllo", 2))
}
