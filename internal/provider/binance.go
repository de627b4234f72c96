package provider

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const binanceSpotBaseURL = "https://api.binance.com/api/v3"

// BinanceSpotProvider reads public spot market data.
type BinanceSpotProvider struct {
	up     *upstream
	tracer trace.Tracer
}

// NewBinanceSpotProvider needs no key; the public weight limit is generous.
func NewBinanceSpotProvider(tracer trace.Tracer, opts ...Option) *BinanceSpotProvider {
	return &BinanceSpotProvider{
		up:     newUpstream("binance_spot", binanceSpotBaseURL, tracer, NewRateLimiter(20, 100*time.Millisecond), opts),
		tracer: tracer,
	}
}

type binanceTicker struct {
	Symbol             string `json:"symbol"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
}

// Tickers returns 24h tickers for every USDT pair.
func (p *BinanceSpotProvider) Tickers(ctx context.Context) []Ticker {
	ctx, span := p.tracer.Start(ctx, "binance_spot.tickers")
	defer span.End()

	var raw []binanceTicker
	if err := p.up.getJSON(ctx, "/ticker/24hr", nil, &raw); err != nil {
		p.up.report("tickers", err)
		return nil
	}
	out := make([]Ticker, 0, len(raw))
	for _, t := range raw {
		if !strings.HasSuffix(t.Symbol, "USDT") || len(t.Symbol) == len("USDT") {
			continue
		}
		out = append(out, Ticker{
			Symbol:      t.Symbol,
			Base:        strings.TrimSuffix(t.Symbol, "USDT"),
			LastPrice:   parseFloat(t.LastPrice),
			ChangePct:   parseFloat(t.PriceChangePercent),
			Volume:      parseFloat(t.Volume),
			QuoteVolume: parseFloat(t.QuoteVolume),
			High:        parseFloat(t.HighPrice),
			Low:         parseFloat(t.LowPrice),
		})
	}
	span.SetAttributes(attribute.Int("tickers", len(out)))
	return out
}

// TopGainers returns the strongest 24h movers with more than $1M quote volume.
func (p *BinanceSpotProvider) TopGainers(ctx context.Context, limit int) []Ticker {
	return topGainers(p.Tickers(ctx), limit)
}

func topGainers(tickers []Ticker, limit int) []Ticker {
	out := make([]Ticker, 0, len(tickers))
	for _, t := range tickers {
		if t.QuoteVolume > 1_000_000 {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangePct > out[j].ChangePct })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Klines returns close prices for base/USDT, oldest first.
func (p *BinanceSpotProvider) Klines(ctx context.Context, base, interval string, limit int) []float64 {
	ctx, span := p.tracer.Start(ctx, "binance_spot.klines", trace.WithAttributes(attribute.String("symbol", base)))
	defer span.End()

	q := url.Values{
		"symbol":   {strings.ToUpper(base) + "USDT"},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	// [openTime, open, high, low, close, volume, ...]
	var raw [][]any
	if err := p.up.getJSON(ctx, "/klines", q, &raw); err != nil {
		p.up.report("klines", err)
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, k := range raw {
		if len(k) < 5 {
			continue
		}
		if s, ok := k[4].(string); ok {
			out = append(out, parseFloat(s))
		}
	}
	return out
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
