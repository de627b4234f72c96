package signal

import (
	"context"
	"strings"

	"trendpulse/internal/domain"
)

var bullishTerms = []string{
	"moon", "pump", "bullish", "buy", "long", "rocket", "🚀", "💎",
	"ath", "all time high", "breakout", "going up", "to the moon",
	"gem", "alpha", "undervalued", "accumulate", "hold", "hodl",
}

var bearishTerms = []string{
	"dump", "crash", "bearish", "sell", "short", "rugpull", "rug",
	"scam", "ponzi", "red", "drop", "falling", "liquidation",
	"fud", "overvalued", "bubble", "dead", "rip",
}

// LexiconSentiment counts distinct lexicon hits in text. Ties are Neutral.
func LexiconSentiment(text string) domain.Sentiment {
	lower := strings.ToLower(text)
	bull := countMatches(lower, bullishTerms)
	bear := countMatches(lower, bearishTerms)

	switch {
	case bull > bear:
		return domain.SentimentBullish
	case bear > bull:
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}

func countMatches(text string, tokens []string) int {
	count := 0
	for _, token := range tokens {
		if strings.Contains(text, token) {
			count++
		}
	}
	return count
}

// TextClassifier labels free text such as a page of social posts.
type TextClassifier interface {
	Classify(ctx context.Context, text string) domain.Sentiment
}

// Lexicon is the keyword classifier; the zero value is ready to use.
type Lexicon struct{}

func (Lexicon) Classify(_ context.Context, text string) domain.Sentiment {
	return LexiconSentiment(text)
}
