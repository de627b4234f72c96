package provider

import (
	"context"
	"net/url"
	"strings"
	"time"

	"trendpulse/internal/signal"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
	coingeckoProURL  = "https://pro-api.coingecko.com/api/v3"
)

// CoinGeckoProvider serves trending, volume-ranked and per-coin market data.
type CoinGeckoProvider struct {
	up     *upstream
	tracer trace.Tracer
}

// NewCoinGeckoProvider creates a client rate limited to the free tier (30 calls/min).
// A non-empty apiKey switches to the pro host and sends the demo key header.
func NewCoinGeckoProvider(tracer trace.Tracer, apiKey string, opts ...Option) *CoinGeckoProvider {
	base := coingeckoBaseURL
	apiKey = strings.TrimSpace(apiKey)
	if apiKey != "" {
		base = coingeckoProURL
	}
	up := newUpstream("coingecko", base, tracer, NewRateLimiter(5, 2*time.Second), opts)
	if apiKey != "" {
		up.headers.Set("x-cg-demo-api-key", apiKey)
	}
	return &CoinGeckoProvider{up: up, tracer: tracer}
}

type cgTrendingResponse struct {
	Coins []struct {
		Item struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			Symbol        string `json:"symbol"`
			MarketCapRank int    `json:"market_cap_rank"`
			Thumb         string `json:"thumb"`
			Large         string `json:"large"`
		} `json:"item"`
	} `json:"coins"`
}

type cgMarket struct {
	ID                      string  `json:"id"`
	Symbol                  string  `json:"symbol"`
	Name                    string  `json:"name"`
	Image                   string  `json:"image"`
	CurrentPrice            float64 `json:"current_price"`
	MarketCap               float64 `json:"market_cap"`
	MarketCapRank           int     `json:"market_cap_rank"`
	TotalVolume             float64 `json:"total_volume"`
	PriceChangePercentage24 float64 `json:"price_change_percentage_24h"`
	PriceChange1hInCurrency float64 `json:"price_change_percentage_1h_in_currency"`
	Sparkline7d             *struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

func (m cgMarket) sparkline() []float64 {
	if m.Sparkline7d == nil || len(m.Sparkline7d.Price) == 0 {
		return []float64{}
	}
	return signal.SampleSeries(m.Sparkline7d.Price, signal.SparklinePoints)
}

// Trending returns the first 10 coins of the 24h trending list, enriched with
// one batched markets call. Coins missing from the markets response keep zero
// market fields.
func (p *CoinGeckoProvider) Trending(ctx context.Context) []MarketCoin {
	ctx, span := p.tracer.Start(ctx, "coingecko.trending")
	defer span.End()

	var raw cgTrendingResponse
	if err := p.up.getJSON(ctx, "/search/trending", nil, &raw); err != nil {
		p.up.report("trending", err)
		return nil
	}
	items := raw.Coins
	if len(items) > 10 {
		items = items[:10]
	}
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, 0, len(items))
	for _, c := range items {
		ids = append(ids, c.Item.ID)
	}
	markets := p.markets(ctx, url.Values{
		"ids":      {strings.Join(ids, ",")},
		"order":    {"market_cap_desc"},
		"per_page": {"50"},
	})
	byID := make(map[string]cgMarket, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
	}

	out := make([]MarketCoin, 0, len(items))
	for idx, c := range items {
		m, ok := byID[c.Item.ID]
		coin := MarketCoin{
			ID:            c.Item.ID,
			Name:          c.Item.Name,
			Symbol:        strings.ToUpper(c.Item.Symbol),
			MarketCapRank: c.Item.MarketCapRank,
			TrendScore:    signal.PositionScore(idx, 98, 5, 50),
			Image:         firstNonEmpty(c.Item.Large, c.Item.Thumb),
			Sparkline:     []float64{},
		}
		if ok {
			coin.Price = m.CurrentPrice
			coin.Change24h = m.PriceChangePercentage24
			coin.Change1h = m.PriceChange1hInCurrency
			coin.MarketCap = m.MarketCap
			coin.Volume = m.TotalVolume
			coin.Sparkline = m.sparkline()
			if m.MarketCapRank > 0 {
				coin.MarketCapRank = m.MarketCapRank
			}
		}
		out = append(out, coin)
	}
	span.SetAttributes(attribute.Int("coins", len(out)))
	return out
}

// TopByVolume returns up to 8 coins ordered by 24h volume, skipping those with no volume.
func (p *CoinGeckoProvider) TopByVolume(ctx context.Context) []MarketCoin {
	ctx, span := p.tracer.Start(ctx, "coingecko.top-by-volume")
	defer span.End()

	markets := p.markets(ctx, url.Values{
		"order":    {"volume_desc"},
		"per_page": {"10"},
	})
	out := make([]MarketCoin, 0, 8)
	for _, m := range markets {
		if m.TotalVolume <= 0 {
			continue
		}
		if len(out) == 8 {
			break
		}
		out = append(out, MarketCoin{
			ID:            m.ID,
			Name:          m.Name,
			Symbol:        strings.ToUpper(m.Symbol),
			Price:         m.CurrentPrice,
			Change24h:     m.PriceChangePercentage24,
			Change1h:      m.PriceChange1hInCurrency,
			MarketCapRank: m.MarketCapRank,
			TrendScore:    signal.PositionScore(len(out), 95, 4, 60),
			Image:         m.Image,
			Sparkline:     m.sparkline(),
			MarketCap:     m.MarketCap,
			Volume:        m.TotalVolume,
		})
	}
	return out
}

func (p *CoinGeckoProvider) markets(ctx context.Context, q url.Values) []cgMarket {
	q.Set("vs_currency", "usd")
	q.Set("page", "1")
	q.Set("sparkline", "true")
	q.Set("price_change_percentage", "1h,24h,7d")

	var out []cgMarket
	if err := p.up.getJSON(ctx, "/coins/markets", q, &out); err != nil {
		p.up.report("markets", err)
		return nil
	}
	return out
}

// Search resolves a free-text query to CoinGecko coins.
func (p *CoinGeckoProvider) Search(ctx context.Context, query string) []SearchCoin {
	ctx, span := p.tracer.Start(ctx, "coingecko.search", trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	var raw struct {
		Coins []struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			Symbol        string `json:"symbol"`
			MarketCapRank int    `json:"market_cap_rank"`
			Thumb         string `json:"thumb"`
		} `json:"coins"`
	}
	if err := p.up.getJSON(ctx, "/search", url.Values{"query": {query}}, &raw); err != nil {
		p.up.report("search", err)
		return nil
	}
	out := make([]SearchCoin, 0, len(raw.Coins))
	for _, c := range raw.Coins {
		out = append(out, SearchCoin{
			ID:            c.ID,
			Name:          c.Name,
			Symbol:        strings.ToUpper(c.Symbol),
			MarketCapRank: c.MarketCapRank,
			Thumb:         c.Thumb,
		})
	}
	return out
}

// CoinDetail returns nil when the coin cannot be fetched.
func (p *CoinGeckoProvider) CoinDetail(ctx context.Context, id string) *CoinDetail {
	ctx, span := p.tracer.Start(ctx, "coingecko.coin-detail", trace.WithAttributes(attribute.String("coin", id)))
	defer span.End()

	var raw struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
		Image  struct {
			Small string `json:"small"`
		} `json:"image"`
		MarketData *struct {
			CurrentPrice map[string]float64 `json:"current_price"`
			Change24h    float64            `json:"price_change_percentage_24h"`
			MarketCap    map[string]float64 `json:"market_cap"`
			TotalVolume  map[string]float64 `json:"total_volume"`
			Sparkline7d  *struct {
				Price []float64 `json:"price"`
			} `json:"sparkline_7d"`
		} `json:"market_data"`
	}
	q := url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"community_data": {"false"},
		"developer_data": {"false"},
		"sparkline":      {"true"},
	}
	if err := p.up.getJSON(ctx, "/coins/"+url.PathEscape(id), q, &raw); err != nil {
		p.up.report("coin-detail", err)
		return nil
	}

	detail := &CoinDetail{
		ID:        raw.ID,
		Name:      raw.Name,
		Symbol:    strings.ToUpper(raw.Symbol),
		Image:     raw.Image.Small,
		Sparkline: []float64{},
	}
	if md := raw.MarketData; md != nil {
		detail.Price = md.CurrentPrice["usd"]
		detail.Change24h = md.Change24h
		detail.MarketCap = md.MarketCap["usd"]
		detail.Volume = md.TotalVolume["usd"]
		if md.Sparkline7d != nil && len(md.Sparkline7d.Price) > 0 {
			detail.Sparkline = signal.SampleSeries(md.Sparkline7d.Price, signal.SparklinePoints)
		}
	}
	return detail
}

// Ping reports whether the API answers.
func (p *CoinGeckoProvider) Ping(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "coingecko.ping")
	defer span.End()

	var raw struct {
		GeckoSays string `json:"gecko_says"`
	}
	return p.up.getJSON(ctx, "/ping", nil, &raw)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
