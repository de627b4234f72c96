package domain

import "time"

// TrendSource tags which provider made an asset worth showing.
type TrendSource string

const (
	SourceSearch  TrendSource = "search"
	SourceSocial  TrendSource = "social"
	SourceListing TrendSource = "listing"
	SourceMarket  TrendSource = "market"
)

type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentBearish Sentiment = "Bearish"
	SentimentNeutral Sentiment = "Neutral"
)

type Authenticity string

const (
	AuthenticityVerified Authenticity = "Verified"
	AuthenticityRumor    Authenticity = "Rumor"
	AuthenticityFUD      Authenticity = "FUD"
)

// Provenance tells consumers how fresh a batch is.
type Provenance string

const (
	ProvenanceLive     Provenance = "live"
	ProvenanceCached   Provenance = "cached"
	ProvenanceFallback Provenance = "fallback"
	ProvenanceEmpty    Provenance = "empty"
)

// NormalizedAsset is the unified record produced by every asset aggregation.
// Change24h is always the trailing 24h percentage move.
type NormalizedAsset struct {
	ID              string        `json:"id" msgpack:"id"`
	Name            string        `json:"name" msgpack:"name"`
	Symbol          string        `json:"symbol" msgpack:"symbol"`
	Price           float64       `json:"price" msgpack:"price"`
	Change24h       float64       `json:"change24h" msgpack:"change24h"`
	TrendSources    []TrendSource `json:"trendSources" msgpack:"trendSources"`
	TrendScore      int           `json:"trendScore" msgpack:"trendScore"`
	Sparkline       []float64     `json:"sparkline" msgpack:"sparkline"`
	Summary         string        `json:"summary,omitempty" msgpack:"summary,omitempty"`
	ExchangeLabel   string        `json:"exchangeLabel,omitempty" msgpack:"exchangeLabel,omitempty"`
	Sentiment       Sentiment     `json:"sentiment" msgpack:"sentiment"`
	Authenticity    Authenticity  `json:"authenticity" msgpack:"authenticity"`
	HasWhaleAlert   bool          `json:"hasWhaleAlert" msgpack:"hasWhaleAlert"`
	MarketCapBucket int           `json:"marketCapBucket" msgpack:"marketCapBucket"`
}

// Normalize repairs fields that must never be empty after decoding a stored batch.
func (a *NormalizedAsset) Normalize() {
	if a.Sparkline == nil {
		a.Sparkline = []float64{}
	}
	if len(a.TrendSources) == 0 {
		a.TrendSources = []TrendSource{SourceMarket}
	}
	if a.Sentiment == "" {
		a.Sentiment = SentimentNeutral
	}
	if a.Authenticity == "" {
		a.Authenticity = AuthenticityRumor
	}
}

// NewTrendSources returns primary followed by extras with duplicates collapsed.
func NewTrendSources(primary TrendSource, extra ...TrendSource) []TrendSource {
	out := []TrendSource{primary}
	for _, s := range extra {
		seen := false
		for _, existing := range out {
			if existing == s {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, s)
		}
	}
	return out
}

type AssetBatch struct {
	Items      []NormalizedAsset `json:"items"`
	Provenance Provenance        `json:"provenance"`
}

type SocialSignal struct {
	Hashtag   string    `json:"hashtag"`
	Mentions  int       `json:"mentions"`
	Sentiment Sentiment `json:"sentiment"`
}

type SocialBatch struct {
	Items      []SocialSignal `json:"items"`
	Provenance Provenance     `json:"provenance"`
}

type NewsSource string

const (
	NewsSourceSearch NewsSource = "search"
	NewsSourceSocial NewsSource = "social"
)

// NewsItem ids are only unique within the call that produced them.
type NewsItem struct {
	ID             string     `json:"id"`
	Source         NewsSource `json:"source"`
	Headline       string     `json:"headline"`
	Impact         string     `json:"impact"`
	Recommendation string     `json:"recommendation"`
	TimeLabel      string     `json:"timeLabel"`
}

type NewsBatch struct {
	Items      []NewsItem `json:"items"`
	Provenance Provenance `json:"provenance"`
}

type ServiceState struct {
	Status     string `json:"status"`
	Configured bool   `json:"configured"`
	Note       string `json:"note,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

type StatusReport struct {
	Timestamp time.Time               `json:"timestamp"`
	Services  map[string]ServiceState `json:"services"`
}
