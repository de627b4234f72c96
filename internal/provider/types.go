package provider

import "trendpulse/internal/domain"

// MarketCoin is one CoinGecko market record. MarketCapRank is 0 when unranked.
type MarketCoin struct {
	ID            string
	Name          string
	Symbol        string
	Price         float64
	Change24h     float64
	Change1h      float64
	MarketCapRank int
	TrendScore    int
	Image         string
	Sparkline     []float64
	MarketCap     float64
	Volume        float64
}

// SearchCoin is a CoinGecko search hit.
type SearchCoin struct {
	ID            string
	Name          string
	Symbol        string
	MarketCapRank int
	Thumb         string
}

// CoinDetail carries the market block of /coins/{id}.
type CoinDetail struct {
	ID        string
	Name      string
	Symbol    string
	Price     float64
	Change24h float64
	MarketCap float64
	Volume    float64
	Sparkline []float64
	Image     string
}

// AlphaToken is one entry of the Binance Alpha listing.
type AlphaToken struct {
	AlphaID         string
	Symbol          string
	Name            string
	ChainID         string
	ContractAddress string
	Chain           string
}

// AlphaMarket is an alpha token with whatever market data could be matched.
type AlphaMarket struct {
	AlphaToken
	Price     float64
	Change24h float64
	MarketCap float64
	Volume    float64
	Sparkline []float64
	Image     string
}

// KeywordInterest is a 0..100 search-interest score over the last week.
type KeywordInterest struct {
	Keyword string
	Score   int
	Rising  bool
}

// DailyTrend is a single daily trending search.
type DailyTrend struct {
	Title          string
	Traffic        string
	RelatedQueries []string
	Source         string
	TimeAgo        string
}

// Tweet is a recent post returned by the social search.
type Tweet struct {
	ID        string
	Text      string
	Author    string
	CreatedAt string
	Likes     int
	Retweets  int
}

// Mention aggregates recent posts for one query.
type Mention struct {
	Query     string
	Mentions  int
	Sentiment domain.Sentiment
	Tweets    []Tweet
}

// Ticker is a Binance spot 24h ticker. Base is the symbol without its quote.
type Ticker struct {
	Symbol      string
	Base        string
	LastPrice   float64
	ChangePct   float64
	Volume      float64
	QuoteVolume float64
	High        float64
	Low         float64
}

// BoostedToken is a DexScreener boosted token resolved to its deepest pair.
type BoostedToken struct {
	ChainID   string
	Address   string
	Symbol    string
	Name      string
	Price     float64
	Change24h float64
	Volume24h float64
	MarketCap float64
	Liquidity float64
	DexID     string
	URL       string
	Boosts    int
}
