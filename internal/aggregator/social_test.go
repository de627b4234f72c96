package aggregator

import (
	"context"
	"testing"

	"trendpulse/internal/cache"
	"trendpulse/internal/domain"
	"trendpulse/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocialSentimentFromMentions(t *testing.T) {
	h := newHarness()
	h.social.available = true
	h.social.byQuery["#Bitcoin"] = provider.Mention{Query: "#Bitcoin", Mentions: 10, Sentiment: domain.SentimentBullish}
	h.social.byQuery["#Ethereum"] = provider.Mention{Query: "#Ethereum", Mentions: 5}

	batch := h.service(Config{}).SocialSentiment(context.Background())

	assert.Equal(t, domain.ProvenanceLive, batch.Provenance)
	assert.Equal(t, []domain.SocialSignal{
		{Hashtag: "#Bitcoin", Mentions: 10, Sentiment: domain.SentimentBullish},
		{Hashtag: "#Ethereum", Mentions: 5, Sentiment: domain.SentimentNeutral},
	}, batch.Items)
	assert.Zero(t, h.interest.total())
}

func TestSocialSentimentDedupsHashtags(t *testing.T) {
	h := newHarness()
	h.social.available = true
	h.social.byQuery["#Bitcoin"] = provider.Mention{Query: "#Bitcoin", Mentions: 10}
	h.social.byQuery["$bitcoin"] = provider.Mention{Query: "$bitcoin", Mentions: 99}

	batch := h.service(Config{SocialHashtags: []string{"#Bitcoin", "$bitcoin"}}).SocialSentiment(context.Background())

	require.Len(t, batch.Items, 1)
	assert.Equal(t, 10, batch.Items[0].Mentions)
}

func TestSocialSentimentFallsBackToSearchInterest(t *testing.T) {
	h := newHarness()
	h.social.available = true
	h.interest.byKeyword["Bitcoin"] = provider.KeywordInterest{Keyword: "Bitcoin", Score: 40, Rising: true}
	h.interest.byKeyword["Solana"] = provider.KeywordInterest{Keyword: "Solana", Score: 10}

	batch := h.service(Config{}).SocialSentiment(context.Background())

	assert.Equal(t, domain.ProvenanceLive, batch.Provenance)
	assert.Equal(t, []domain.SocialSignal{
		{Hashtag: "#Bitcoin", Mentions: 4000, Sentiment: domain.SentimentBullish},
		{Hashtag: "#Solana", Mentions: 1000, Sentiment: domain.SentimentNeutral},
	}, batch.Items)
	assert.Equal(t, 1, h.social.count("sentiment"))
	assert.Equal(t, [][]string{{"Bitcoin", "Ethereum", "Solana", "BNB", "Memecoin"}}, h.interest.keywords)
}

func TestSocialSentimentInterestFollowsConfiguredHashtags(t *testing.T) {
	h := newHarness()
	h.interest.byKeyword["Doge"] = provider.KeywordInterest{Keyword: "Doge", Score: 12}

	batch := h.service(Config{SocialHashtags: []string{"#Doge", "$PEPE", "#"}}).SocialSentiment(context.Background())

	assert.Equal(t, []domain.SocialSignal{{Hashtag: "#Doge", Mentions: 1200, Sentiment: domain.SentimentNeutral}}, batch.Items)
	assert.Equal(t, [][]string{{"Doge", "PEPE"}}, h.interest.keywords)
}

func TestHashtagKeywords(t *testing.T) {
	assert.Equal(t, []string{"Bitcoin", "BNB", "AIagents"}, HashtagKeywords([]string{"#Bitcoin", " $BNB ", "#AI agents", ""}))
	assert.Empty(t, HashtagKeywords(nil))
}

func TestSocialSentimentHardcodedFallback(t *testing.T) {
	h := newHarness()

	batch := h.service(Config{}).SocialSentiment(context.Background())

	assert.Equal(t, domain.ProvenanceFallback, batch.Provenance)
	assert.Equal(t, []domain.SocialSignal{
		{Hashtag: "#Bitcoin", Sentiment: domain.SentimentNeutral},
		{Hashtag: "#Ethereum", Sentiment: domain.SentimentNeutral},
		{Hashtag: "#Solana", Sentiment: domain.SentimentNeutral},
	}, batch.Items)
	assert.Zero(t, h.social.total())

	require.Len(t, h.events.events, 1)
	assert.Equal(t, "social_sentiment", h.events.events[0].kind)
	assert.Equal(t, "fallback", h.events.events[0].provenance)
}

func TestHashtag(t *testing.T) {
	assert.Equal(t, "#Bitcoin", hashtag("Bitcoin"))
	assert.Equal(t, "#SOL", hashtag("$SOL"))
	assert.Equal(t, "#AIagentcrypto", hashtag(" AI agent crypto "))
}

func TestStatusReport(t *testing.T) {
	h := newHarness()
	h.market.pingErr = errDown

	report := h.service(Config{MarketKeyed: true}).Status(context.Background())

	assert.Equal(t, fixedNow, report.Timestamp)
	assert.Equal(t, domain.ServiceState{Status: "unreachable", Configured: true, Detail: "down"}, report.Services["coingecko"])
	assert.Equal(t, "available", report.Services["googleTrends"].Status)
	assert.Equal(t, "not_configured", report.Services["twitter"].Status)
	assert.False(t, report.Services["twitter"].Configured)
	assert.Equal(t, "enabled", report.Services["binanceSpot"].Status)
	assert.Equal(t, "memory", report.Services["cache"].Detail)
}

func TestStatusWithoutOptionalClients(t *testing.T) {
	h := newHarness()
	store := cache.NewDurable(cache.NewFileStore(t.TempDir()), testTracer(), nil)
	svc := NewService(testTracer(), Deps{Market: h.market, Listing: h.listing, Cache: store}, Config{})

	report := svc.Status(context.Background())

	assert.Equal(t, "connected", report.Services["coingecko"].Status)
	assert.Equal(t, "not_configured", report.Services["googleTrends"].Status)
	assert.Equal(t, "disabled", report.Services["binanceSpot"].Status)
	assert.Equal(t, "file", report.Services["cache"].Detail)
}
