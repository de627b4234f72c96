package provider

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	binanceWebBaseURL  = "https://www.binance.com"
	alphaTokenListPath = "/bapi/defi/v1/public/wallet-direct/buw/wallet/cex/alpha/all/token/list"

	// AlphaEnrichDelay spaces the per-token market lookups to stay under the free tier.
	AlphaEnrichDelay = 2200 * time.Millisecond
)

var alphaChains = map[string]string{
	"56":    "BSC",
	"1":     "Ethereum",
	"501":   "Solana",
	"137":   "Polygon",
	"42161": "Arbitrum",
	"8453":  "Base",
	"10":    "Optimism",
	"43114": "Avalanche",
}

// ChainName maps a numeric chain id to its display name.
func ChainName(chainID string) string {
	if name, ok := alphaChains[chainID]; ok {
		return name
	}
	return "Chain " + chainID
}

// CoinLookup is the part of the market-data client used to price alpha tokens.
type CoinLookup interface {
	Search(ctx context.Context, query string) []SearchCoin
	CoinDetail(ctx context.Context, id string) *CoinDetail
}

// BinanceAlphaProvider lists early-stage Binance Alpha tokens.
type BinanceAlphaProvider struct {
	up     *upstream
	tracer trace.Tracer
	market CoinLookup
}

// NewBinanceAlphaProvider creates the listing client. market may be nil, in
// which case PriceTokens returns tokens with zeroed market fields.
func NewBinanceAlphaProvider(tracer trace.Tracer, market CoinLookup, opts ...Option) *BinanceAlphaProvider {
	opts = append([]Option{WithPace(AlphaEnrichDelay)}, opts...)
	up := newUpstream("binance_alpha", binanceWebBaseURL, tracer, NewRateLimiter(10, time.Second), opts)
	up.headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	return &BinanceAlphaProvider{up: up, tracer: tracer, market: market}
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	*f = flexString(strings.Trim(string(b), `"`))
	return nil
}

// Tokens returns the full alpha listing in upstream order.
func (p *BinanceAlphaProvider) Tokens(ctx context.Context) []AlphaToken {
	ctx, span := p.tracer.Start(ctx, "binance_alpha.tokens")
	defer span.End()

	var raw struct {
		Data []struct {
			AlphaID         string     `json:"alphaId"`
			Symbol          string     `json:"symbol"`
			Name            string     `json:"name"`
			ChainID         flexString `json:"chainId"`
			ContractAddress string     `json:"contractAddress"`
		} `json:"data"`
	}
	if err := p.up.getJSON(ctx, alphaTokenListPath, nil, &raw); err != nil {
		p.up.report("tokens", err)
		return nil
	}

	out := make([]AlphaToken, 0, len(raw.Data))
	for _, t := range raw.Data {
		name := firstNonEmpty(t.Name, t.Symbol, "Unknown")
		chainID := string(t.ChainID)
		out = append(out, AlphaToken{
			AlphaID:         t.AlphaID,
			Symbol:          strings.ToUpper(t.Symbol),
			Name:            name,
			ChainID:         chainID,
			ContractAddress: t.ContractAddress,
			Chain:           ChainName(chainID),
		})
	}
	span.SetAttributes(attribute.Int("tokens", len(out)))
	return out
}

// TokensWithMarket lists the tokens and prices the first limit of them.
func (p *BinanceAlphaProvider) TokensWithMarket(ctx context.Context, limit int) []AlphaMarket {
	tokens := p.Tokens(ctx)
	if limit > 0 && len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return p.PriceTokens(ctx, tokens)
}

// PriceTokens looks tokens up one at a time with a fixed delay between
// lookups. Unmatched tokens are kept with zeroed market fields. It returns
// nil when there is nothing to price or ctx is already done.
func (p *BinanceAlphaProvider) PriceTokens(ctx context.Context, tokens []AlphaToken) []AlphaMarket {
	if len(tokens) == 0 || ctx.Err() != nil {
		return nil
	}
	ctx, span := p.tracer.Start(ctx, "binance_alpha.price-tokens")
	defer span.End()

	out := make([]AlphaMarket, 0, len(tokens))
	priced := 0
	for i, token := range tokens {
		if i > 0 && p.market != nil {
			if err := p.up.wait(ctx); err != nil {
				break
			}
		}
		entry := p.enrich(ctx, token)
		if entry.Price > 0 {
			priced++
		}
		out = append(out, entry)
	}

	log.Info().Int("priced", priced).Int("tokens", len(out)).Msg("alpha tokens enriched")
	span.SetAttributes(attribute.Int("priced", priced))
	return out
}

func (p *BinanceAlphaProvider) enrich(ctx context.Context, token AlphaToken) AlphaMarket {
	entry := AlphaMarket{AlphaToken: token, Sparkline: []float64{}}
	if p.market == nil {
		return entry
	}

	var match *SearchCoin
	for _, c := range p.market.Search(ctx, token.Symbol) {
		if strings.EqualFold(c.Symbol, token.Symbol) {
			c := c
			match = &c
			break
		}
	}
	if match == nil {
		return entry
	}
	entry.Image = match.Thumb

	detail := p.market.CoinDetail(ctx, match.ID)
	if detail == nil {
		return entry
	}
	entry.Price = detail.Price
	entry.Change24h = detail.Change24h
	entry.MarketCap = detail.MarketCap
	entry.Volume = detail.Volume
	entry.Sparkline = detail.Sparkline
	if detail.Image != "" {
		entry.Image = detail.Image
	}
	return entry
}
