package provider

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	dexScreenerBaseURL = "https://api.dexscreener.com"
	dexAddressBatch    = 30
)

// DexScreenerProvider reads the public boosted-token feed.
type DexScreenerProvider struct {
	up     *upstream
	tracer trace.Tracer
}

// NewDexScreenerProvider limits calls to 60 per minute.
func NewDexScreenerProvider(tracer trace.Tracer, opts ...Option) *DexScreenerProvider {
	return &DexScreenerProvider{
		up:     newUpstream("dexscreener", dexScreenerBaseURL, tracer, NewRateLimiter(1, time.Second), opts),
		tracer: tracer,
	}
}

type dexBoost struct {
	URL          string  `json:"url"`
	ChainID      string  `json:"chainId"`
	TokenAddress string  `json:"tokenAddress"`
	TotalAmount  float64 `json:"totalAmount"`
}

type dexPair struct {
	ChainID   string `json:"chainId"`
	DexID     string `json:"dexId"`
	URL       string `json:"url"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD    string `json:"priceUsd"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	MarketCap float64 `json:"marketCap"`
	FDV       float64 `json:"fdv"`
}

// TopBoosted returns up to limit boosted tokens in feed order, each resolved to
// its most liquid pair. Tokens without any pair are skipped.
func (p *DexScreenerProvider) TopBoosted(ctx context.Context, limit int) []BoostedToken {
	ctx, span := p.tracer.Start(ctx, "dexscreener.top-boosted")
	defer span.End()

	var boosts []dexBoost
	if err := p.up.getJSON(ctx, "/token-boosts/top/v1", nil, &boosts); err != nil {
		p.up.report("boosts", err)
		return nil
	}

	seen := make(map[string]bool, len(boosts))
	byChain := make(map[string][]string)
	ordered := make([]dexBoost, 0, len(boosts))
	for _, b := range boosts {
		key := b.ChainID + ":" + strings.ToLower(b.TokenAddress)
		if b.TokenAddress == "" || seen[key] {
			continue
		}
		seen[key] = true
		ordered = append(ordered, b)
		byChain[b.ChainID] = append(byChain[b.ChainID], b.TokenAddress)
		if limit > 0 && len(ordered) == limit {
			break
		}
	}

	best := make(map[string]dexPair)
	for chain, addrs := range byChain {
		for start := 0; start < len(addrs); start += dexAddressBatch {
			end := start + dexAddressBatch
			if end > len(addrs) {
				end = len(addrs)
			}
			for _, pair := range p.pairs(ctx, chain, addrs[start:end]) {
				key := pair.ChainID + ":" + strings.ToLower(pair.BaseToken.Address)
				if cur, ok := best[key]; !ok || pair.Liquidity.USD > cur.Liquidity.USD {
					best[key] = pair
				}
			}
		}
	}

	out := make([]BoostedToken, 0, len(ordered))
	for _, b := range ordered {
		pair, ok := best[b.ChainID+":"+strings.ToLower(b.TokenAddress)]
		if !ok {
			continue
		}
		mcap := pair.MarketCap
		if mcap <= 0 {
			mcap = pair.FDV
		}
		out = append(out, BoostedToken{
			ChainID:   b.ChainID,
			Address:   b.TokenAddress,
			Symbol:    strings.ToUpper(pair.BaseToken.Symbol),
			Name:      pair.BaseToken.Name,
			Price:     parseFloat(pair.PriceUSD),
			Change24h: pair.PriceChange.H24,
			Volume24h: pair.Volume.H24,
			MarketCap: mcap,
			Liquidity: pair.Liquidity.USD,
			DexID:     pair.DexID,
			URL:       firstNonEmpty(pair.URL, b.URL),
			Boosts:    int(b.TotalAmount),
		})
	}
	span.SetAttributes(attribute.Int("tokens", len(out)))
	return out
}

func (p *DexScreenerProvider) pairs(ctx context.Context, chain string, addrs []string) []dexPair {
	var out []dexPair
	path := "/tokens/v1/" + url.PathEscape(chain) + "/" + strings.Join(addrs, ",")
	if err := p.up.getJSON(ctx, path, nil, &out); err != nil {
		p.up.report("pairs", err)
		return nil
	}
	return out
}
