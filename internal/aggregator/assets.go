package aggregator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"trendpulse/internal/cache"
	"trendpulse/internal/domain"
	"trendpulse/internal/provider"
	"trendpulse/internal/signal"

	"golang.org/x/sync/errgroup"
)

const (
	trendingWhaleVolume = 1_000_000_000
	binanceWhaleVolume  = 2_000_000_000
	alphaWhaleVolume    = 500_000

	enrichTop        = 5
	searchSourceMin  = 30
	searchSummaryMin = 50
	moveSummaryMin   = 5

	marketSpread = 0.1
	alphaSpread  = 0.2
	alphaMinBase = 0.001
	gainerKlines = 24
)

// Trending merges the market trending list with search and social signals.
func (s *Service) Trending(ctx context.Context) domain.AssetBatch {
	ctx, span, started := s.start(ctx, string(cache.KindTrending))
	batch := s.trending(ctx)
	s.finish(span, string(cache.KindTrending), batch.Provenance, len(batch.Items), started)
	return batch
}

func (s *Service) trending(ctx context.Context) domain.AssetBatch {
	coins := s.deps.Market.Trending(ctx)
	if len(coins) == 0 {
		return s.fromCache(ctx, cache.KindTrending)
	}

	top := make([]string, 0, enrichTop)
	queries := make([]string, 0, enrichTop)
	for _, c := range coins[:min(enrichTop, len(coins))] {
		top = append(top, c.Symbol)
		queries = append(queries, "$"+c.Symbol)
	}

	var (
		interests []provider.KeywordInterest
		daily     []provider.DailyTrend
		mentions  []provider.Mention
		g         errgroup.Group
	)
	if s.deps.Interest != nil {
		g.Go(func() error {
			interests = s.deps.Interest.Interest(ctx, top)
			return nil
		})
		g.Go(func() error {
			daily = s.deps.Interest.CryptoDailyTrends(ctx)
			return nil
		})
	}
	if s.socialReady() {
		g.Go(func() error {
			mentions = s.deps.Social.SocialSentiment(ctx, queries)
			return nil
		})
	}
	_ = g.Wait()

	interestBy := make(map[string]provider.KeywordInterest, len(interests))
	for _, in := range interests {
		interestBy[signal.SymbolKey(in.Keyword)] = in
	}
	mentionBy := make(map[string]provider.Mention, len(mentions))
	for _, m := range mentions {
		mentionBy[signal.SymbolKey(m.Query)] = m
	}

	items := make([]domain.NormalizedAsset, 0, len(coins))
	for idx, coin := range coins {
		key := signal.SymbolKey(coin.Symbol)
		in := interestBy[key]
		m := mentionBy[key]

		extra := []domain.TrendSource{}
		if in.Score > searchSourceMin || inDailyTrends(daily, coin.Name, coin.Symbol) {
			extra = append(extra, domain.SourceSearch)
		}
		if m.Mentions > 0 {
			extra = append(extra, domain.SourceSocial)
		}

		exchange := "DEX"
		if coin.MarketCapRank > 0 && coin.MarketCapRank <= 100 {
			exchange = "Binance"
		}

		items = append(items, domain.NormalizedAsset{
			ID:              coin.ID,
			Name:            coin.Name,
			Symbol:          coin.Symbol,
			Price:           nonNegative(coin.Price),
			Change24h:       round2(coin.Change24h),
			TrendSources:    domain.NewTrendSources(domain.SourceMarket, extra...),
			TrendScore:      signal.TrendScore(coin.Change24h, volumeProxy(coin.Volume, coin.TrendScore)),
			Sparkline:       s.sparkline(coin.Sparkline, coin.Price, marketSpread),
			Summary:         trendingSummary(coin, idx, in.Score, m.Mentions),
			ExchangeLabel:   exchange,
			Sentiment:       signal.Sentiment(coin.Change24h, in.Rising, m.Sentiment),
			Authenticity:    signal.Authenticity(in.Score, coin.Change24h),
			HasWhaleAlert:   coin.Volume > trendingWhaleVolume,
			MarketCapBucket: signal.MarketCapBucket(capOrVolume(coin.MarketCap, coin.Volume)),
		})
	}

	items = dedupAssets(items)
	s.store(ctx, cache.KindTrending, items)
	return domain.AssetBatch{Items: items, Provenance: domain.ProvenanceLive}
}

func trendingSummary(coin provider.MarketCoin, idx, searchScore, mentions int) string {
	lines := []string{fmt.Sprintf("%s (%s) is #%d on CoinGecko trending.", coin.Name, coin.Symbol, idx+1)}
	if searchScore > searchSummaryMin {
		lines = append(lines, fmt.Sprintf("Hot on Google Trends (score %d/100).", searchScore))
	}
	if mentions > 0 {
		lines = append(lines, fmt.Sprintf("%d recent mentions on X.", mentions))
	}
	if math.Abs(coin.Change24h) > moveSummaryMin {
		lines = append(lines, moveLine(coin.Change24h))
	}
	return strings.Join(lines, "\n")
}

// Binance merges the top-volume market list with Binance spot listings and gainers.
func (s *Service) Binance(ctx context.Context) domain.AssetBatch {
	ctx, span, started := s.start(ctx, string(cache.KindBinanceFomo))
	batch := s.binance(ctx)
	s.finish(span, string(cache.KindBinanceFomo), batch.Provenance, len(batch.Items), started)
	return batch
}

func (s *Service) binance(ctx context.Context) domain.AssetBatch {
	coins := s.deps.Market.TopByVolume(ctx)
	if len(coins) == 0 {
		return s.fromCache(ctx, cache.KindBinanceFomo)
	}

	var (
		tickers []provider.Ticker
		gainers []provider.Ticker
		g       errgroup.Group
	)
	if s.deps.Spot != nil {
		g.Go(func() error {
			tickers = s.deps.Spot.Tickers(ctx)
			return nil
		})
		g.Go(func() error {
			gainers = s.deps.Spot.TopGainers(ctx, s.cfg.GainerLimit)
			return nil
		})
	}
	_ = g.Wait()

	charts := make([][]float64, len(gainers))
	var kg errgroup.Group
	for i, t := range gainers {
		kg.Go(func() error {
			charts[i] = s.deps.Spot.Klines(ctx, t.Base, "1h", gainerKlines)
			return nil
		})
	}
	_ = kg.Wait()

	listed := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		listed[signal.SymbolKey(t.Base)] = struct{}{}
	}

	items := make([]domain.NormalizedAsset, 0, len(coins)+len(gainers))
	idByKey := make(map[string]string, len(coins))
	for idx, coin := range coins {
		key := signal.SymbolKey(coin.Symbol)
		if _, ok := idByKey[key]; !ok {
			idByKey[key] = coin.ID
		}
		extra := []domain.TrendSource{}
		if _, ok := listed[key]; ok {
			extra = append(extra, domain.SourceListing)
		}

		rank := "N/A"
		if coin.MarketCapRank > 0 {
			rank = fmt.Sprintf("%d", coin.MarketCapRank)
		}

		items = append(items, domain.NormalizedAsset{
			ID:           coin.ID,
			Name:         coin.Name,
			Symbol:       coin.Symbol,
			Price:        nonNegative(coin.Price),
			Change24h:    round2(coin.Change24h),
			TrendSources: domain.NewTrendSources(domain.SourceMarket, extra...),
			TrendScore:   signal.TrendScore(coin.Change24h, volumeProxy(coin.Volume, coin.TrendScore)),
			Sparkline:    s.sparkline(coin.Sparkline, coin.Price, marketSpread),
			Summary: fmt.Sprintf("%s (%s) is #%d by volume.\nMarket cap rank: #%s\n%s",
				coin.Name, coin.Symbol, idx+1, rank, moveLine(coin.Change24h)),
			ExchangeLabel:   "Binance",
			Sentiment:       signal.Sentiment(coin.Change24h, false, ""),
			Authenticity:    signal.Authenticity(0, coin.Change24h),
			HasWhaleAlert:   coin.Volume > binanceWhaleVolume,
			MarketCapBucket: signal.MarketCapBucket(capOrVolume(coin.MarketCap, coin.Volume)),
		})
	}

	for i, t := range gainers {
		key := signal.SymbolKey(t.Base)
		id, ok := idByKey[key]
		if !ok {
			id = "binance-" + strings.ToLower(key)
		}
		items = append(items, domain.NormalizedAsset{
			ID:           id,
			Name:         key,
			Symbol:       key,
			Price:        nonNegative(t.LastPrice),
			Change24h:    round2(t.ChangePct),
			TrendSources: domain.NewTrendSources(domain.SourceListing),
			TrendScore:   signal.TrendScore(t.ChangePct, t.QuoteVolume),
			Sparkline:    s.sparkline(charts[i], t.LastPrice, marketSpread),
			Summary: fmt.Sprintf("%s is a top Binance spot gainer.\n%s\nQuote volume: $%.0f",
				key, moveLine(t.ChangePct), t.QuoteVolume),
			ExchangeLabel:   "Binance",
			Sentiment:       signal.Sentiment(t.ChangePct, false, ""),
			Authenticity:    signal.Authenticity(0, t.ChangePct),
			HasWhaleAlert:   t.QuoteVolume > binanceWhaleVolume,
			MarketCapBucket: signal.MarketCapBucket(t.QuoteVolume),
		})
	}

	items = dedupAssets(items)
	s.store(ctx, cache.KindBinanceFomo, items)
	return domain.AssetBatch{Items: items, Provenance: domain.ProvenanceLive}
}

// Alpha lists early Binance Alpha tokens. When market enrichment fails but
// the token list is reachable the bare list is returned as a fallback.
func (s *Service) Alpha(ctx context.Context) domain.AssetBatch {
	ctx, span, started := s.start(ctx, string(cache.KindAlphaBinance))
	batch := s.alpha(ctx)
	s.finish(span, string(cache.KindAlphaBinance), batch.Provenance, len(batch.Items), started)
	return batch
}

func (s *Service) alpha(ctx context.Context) domain.AssetBatch {
	tokens := s.deps.Listing.Tokens(ctx)
	if len(tokens) == 0 {
		return s.fromCache(ctx, cache.KindAlphaBinance)
	}
	tokens = tokens[:min(s.cfg.AlphaLimit, len(tokens))]

	if markets := s.deps.Listing.PriceTokens(ctx, tokens); len(markets) > 0 {
		items := make([]domain.NormalizedAsset, 0, len(markets))
		for idx, t := range markets {
			items = append(items, s.alphaAsset(t, idx))
		}
		items = dedupAssets(items)
		s.store(ctx, cache.KindAlphaBinance, items)
		return domain.AssetBatch{Items: items, Provenance: domain.ProvenanceLive}
	}

	items := make([]domain.NormalizedAsset, 0, len(tokens))
	for idx, t := range tokens {
		items = append(items, s.alphaAsset(provider.AlphaMarket{AlphaToken: t}, idx))
	}
	return domain.AssetBatch{Items: dedupAssets(items), Provenance: domain.ProvenanceFallback}
}

func (s *Service) alphaAsset(t provider.AlphaMarket, idx int) domain.NormalizedAsset {
	id := t.ContractAddress
	if id == "" {
		id = fmt.Sprintf("alpha-%d", idx)
	}
	chain := t.Chain
	if chain == "" {
		chain = "BSC"
	}

	score := signal.PositionScore(idx, 90, 3, 50)
	if t.Volume > 0 {
		score = signal.TrendScore(t.Change24h, t.Volume)
	}

	base := t.Price
	if base <= 0 {
		base = alphaMinBase
	}
	sparkline := t.Sparkline
	if len(sparkline) == 0 {
		sparkline = s.placeholder(base, alphaSpread)
	}

	price := "No price data yet"
	switch {
	case t.Price >= 0.01:
		price = fmt.Sprintf("Price: $%.4f", t.Price)
	case t.Price > 0:
		price = fmt.Sprintf("Price: $%.8f", t.Price)
	}

	return domain.NormalizedAsset{
		ID:           id,
		Name:         t.Name,
		Symbol:       t.Symbol,
		Price:        nonNegative(t.Price),
		Change24h:    round2(t.Change24h),
		TrendSources: domain.NewTrendSources(domain.SourceListing),
		TrendScore:   score,
		Sparkline:    sparkline,
		Summary: fmt.Sprintf("Binance Alpha token\n%s (%s) on %s\nContract: %s\n%s",
			t.Name, t.Symbol, chain, shortAddress(t.ContractAddress, 10, 6), price),
		ExchangeLabel:   fmt.Sprintf("Alpha (%s)", chain),
		Sentiment:       signal.Sentiment(t.Change24h, false, ""),
		Authenticity:    signal.Authenticity(0, t.Change24h),
		HasWhaleAlert:   t.Volume > alphaWhaleVolume,
		MarketCapBucket: signal.AlphaCapBucket(t.MarketCap),
	}
}

// sparkline returns history when present and a placeholder otherwise.
func (s *Service) sparkline(history []float64, price, spread float64) []float64 {
	if len(history) > 0 {
		return history
	}
	if price <= 0 {
		return []float64{}
	}
	return s.placeholder(price, spread)
}

func (s *Service) placeholder(price, spread float64) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return signal.PlaceholderSparkline(price, signal.SparklinePoints, spread, s.rnd)
}

func inDailyTrends(trends []provider.DailyTrend, name, symbol string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	key := signal.SymbolKey(symbol)
	for _, t := range trends {
		texts := append([]string{t.Title}, t.RelatedQueries...)
		for _, text := range texts {
			lower := strings.ToLower(text)
			if len(name) >= 3 && strings.Contains(lower, name) {
				return true
			}
			for _, word := range strings.FieldsFunc(lower, notAlnum) {
				if key != "" && strings.EqualFold(word, key) {
					return true
				}
			}
		}
	}
	return false
}

func notAlnum(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z')
}

func moveLine(change float64) string {
	dir := "up"
	if change < 0 {
		dir = "down"
	}
	return fmt.Sprintf("Price %s %.1f%% in 24h.", dir, math.Abs(change))
}

// volumeProxy falls back to the provider's list position score.
func volumeProxy(volume float64, position int) float64 {
	if volume > 0 {
		return volume
	}
	return float64(position)
}

func capOrVolume(marketCap, volume float64) float64 {
	if marketCap > 0 {
		return marketCap
	}
	return volume
}

func shortAddress(addr string, head, tail int) string {
	if len(addr) <= head+tail {
		return addr
	}
	return addr[:head] + "..." + addr[len(addr)-tail:]
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
