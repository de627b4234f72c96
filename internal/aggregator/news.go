package aggregator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"trendpulse/internal/domain"
	"trendpulse/internal/provider"
)

const (
	socialNewsItems  = 2
	headlineMaxRunes = 150
)

// stageRoom limits a stage to limit items when set, else to the remaining room.
func stageRoom(limit, room int) int {
	if limit > 0 && limit < room {
		return limit
	}
	return room
}

// BreakingNews runs a strict cascade over the sources. Each stage only runs
// while fewer than the target number of items exist and never removes items.
func (s *Service) BreakingNews(ctx context.Context) domain.NewsBatch {
	ctx, span, started := s.start(ctx, KindNews)
	batch := s.breakingNews(ctx)
	s.finish(span, KindNews, batch.Provenance, len(batch.Items), started)
	return batch
}

type newsStage func(ctx context.Context, room int, clock string) []domain.NewsItem

func (s *Service) breakingNews(ctx context.Context) domain.NewsBatch {
	clock := s.now().In(s.cfg.Location).Format("15:04")
	stages := []newsStage{
		s.newsDailyTrends,
		s.newsAlphaListings,
		s.newsInterest,
		s.newsLowcapTrending,
		s.newsSocial,
	}

	news := make([]domain.NewsItem, 0, s.cfg.NewsTarget)
	for _, stage := range stages {
		room := s.cfg.NewsTarget - len(news)
		if room <= 0 {
			break
		}
		items := stage(ctx, room, clock)
		news = append(news, items[:min(room, len(items))]...)
	}

	provenance := domain.ProvenanceLive
	if len(news) == 0 {
		provenance = domain.ProvenanceEmpty
	}
	return domain.NewsBatch{Items: news, Provenance: provenance}
}

func (s *Service) newsDailyTrends(ctx context.Context, room int, clock string) []domain.NewsItem {
	if s.deps.Interest == nil {
		return nil
	}
	trends := s.deps.Interest.CryptoDailyTrends(ctx)
	take := min(stageRoom(s.cfg.NewsDailyTrendLimit, room), len(trends))
	out := make([]domain.NewsItem, 0, take)
	for _, t := range trends[:take] {
		related := "N/A"
		if len(t.RelatedQueries) > 0 {
			related = strings.Join(t.RelatedQueries[:min(3, len(t.RelatedQueries))], ", ")
		}
		when := t.TimeAgo
		if when == "" {
			when = clock
		}
		out = append(out, domain.NewsItem{
			ID:             "gd-" + s.newID(),
			Source:         domain.NewsSourceSearch,
			Headline:       t.Title,
			Impact:         fmt.Sprintf("%s searches on Google. Related: %s", t.Traffic, related),
			Recommendation: "Hot on Google Search, may move related lowcaps.",
			TimeLabel:      when,
		})
	}
	return out
}

func (s *Service) newsAlphaListings(ctx context.Context, room int, clock string) []domain.NewsItem {
	if s.deps.Listing == nil {
		return nil
	}
	tokens := s.deps.Listing.Tokens(ctx)
	take := stageRoom(s.cfg.NewsAlphaLimit, room)
	recent := make([]provider.AlphaToken, 0, min(take, len(tokens)))
	for i := len(tokens) - 1; i >= 0 && len(recent) < take; i-- {
		recent = append(recent, tokens[i])
	}

	out := make([]domain.NewsItem, 0, len(recent))
	for _, t := range recent {
		chain := t.Chain
		if chain == "" {
			chain = "BSC"
		}
		out = append(out, domain.NewsItem{
			ID:       "alpha-" + s.newID(),
			Source:   domain.NewsSourceSearch,
			Headline: fmt.Sprintf("%s (%s) added to Binance Alpha on %s", t.Name, t.Symbol, chain),
			Impact: fmt.Sprintf("Chain: %s | Contract: %s. Early-stage lowcap, candidate for a main Binance listing.",
				chain, shortAddress(t.ContractAddress, 8, 6)),
			Recommendation: "Early Alpha token, high risk and high reward. DYOR and only size what you can lose.",
			TimeLabel:      clock,
		})
	}
	return out
}

func (s *Service) newsInterest(ctx context.Context, room int, clock string) []domain.NewsItem {
	if s.deps.Interest == nil {
		return nil
	}
	interests := s.deps.Interest.Interest(ctx, s.cfg.NewsInterestKeywords)
	significant := make([]provider.KeywordInterest, 0, len(interests))
	for _, in := range interests {
		if in.Score > 0 {
			significant = append(significant, in)
		}
	}
	sort.SliceStable(significant, func(i, j int) bool { return significant[i].Score > significant[j].Score })

	out := make([]domain.NewsItem, 0, room)
	for _, in := range significant[:min(room, len(significant))] {
		impact := fmt.Sprintf("Rising fast. The %q narrative is getting more attention, which feeds lowcaps in this group.", in.Keyword)
		rec := "Sentiment: Bullish. The narrative is hot, look for lowcap gems in this group before the FOMO."
		if !in.Rising {
			impact = fmt.Sprintf("Cooling off. The %q narrative is stable.", in.Keyword)
			rec = "Sentiment: Neutral. The narrative is cooling, wait for confirmation before entry."
		}
		out = append(out, domain.NewsItem{
			ID:             "gi-" + s.newID(),
			Source:         domain.NewsSourceSearch,
			Headline:       fmt.Sprintf("Google Trends: %q reached interest score %d/100 over the last 7 days", in.Keyword, in.Score),
			Impact:         impact,
			Recommendation: rec,
			TimeLabel:      clock,
		})
	}
	return out
}

func (s *Service) newsLowcapTrending(ctx context.Context, room int, clock string) []domain.NewsItem {
	if s.deps.Market == nil {
		return nil
	}
	coins := s.deps.Market.Trending(ctx)
	out := make([]domain.NewsItem, 0, room)
	for _, c := range coins {
		if len(out) >= room {
			break
		}
		if c.MarketCapRank > 0 && c.MarketCapRank <= 100 {
			continue
		}

		dir := "up"
		if c.Change24h < 0 {
			dir = "down"
		}
		rank := "Unranked"
		if c.MarketCapRank > 0 {
			rank = fmt.Sprintf("%d", c.MarketCapRank)
		}
		rec := "Accumulating, watch volume to confirm the trend."
		switch {
		case c.Change24h > 15:
			rec = "Strong pump, beware of FOMO. Check on-chain data before entry."
		case c.Change24h < -10:
			rec = "Heavy dump while still trending, could be an opportunity or a rug. DYOR."
		}

		out = append(out, domain.NewsItem{
			ID:     "cg-" + s.newID(),
			Source: domain.NewsSourceSearch,
			Headline: fmt.Sprintf("Lowcap alert: %s (%s) is top trending, price %s %.1f%% (24h)",
				c.Name, c.Symbol, dir, math.Abs(c.Change24h)),
			Impact:         fmt.Sprintf("Market cap rank: #%s. A lowcap in the trending list can signal a pump or a new narrative.", rank),
			Recommendation: rec,
			TimeLabel:      clock,
		})
	}
	return out
}

func (s *Service) newsSocial(ctx context.Context, room int, clock string) []domain.NewsItem {
	if !s.socialReady() {
		return nil
	}
	mentions := s.deps.Social.SocialSentiment(ctx, s.cfg.NewsSocialQueries)
	out := make([]domain.NewsItem, 0, socialNewsItems)
	for _, m := range mentions[:min(socialNewsItems, len(mentions))] {
		if len(out) >= room {
			break
		}
		if len(m.Tweets) == 0 {
			continue
		}
		top := m.Tweets[0]
		when := clock
		if ts, err := time.Parse(time.RFC3339, top.CreatedAt); err == nil {
			when = ts.In(s.cfg.Location).Format("15:04")
		}
		out = append(out, domain.NewsItem{
			ID:             "t-" + top.ID,
			Source:         domain.NewsSourceSocial,
			Headline:       truncateRunes(top.Text, headlineMaxRunes),
			Impact:         fmt.Sprintf("%d likes, %d retweets, @%s", top.Likes, top.Retweets, top.Author),
			Recommendation: fmt.Sprintf("X sentiment: %s. %d lowcap mentions found.", orNeutral(m.Sentiment), m.Mentions),
			TimeLabel:      when,
		})
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
