package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	googleTrendsBaseURL = "https://trends.google.com"
	interestBatchSize   = 5
	interestWindow      = "now 7-d"
	dailyTrendsLimit    = 20
)

// DefaultCryptoKeywords selects crypto-related entries from the daily feed.
var DefaultCryptoKeywords = []string{
	"crypto", "bitcoin", "btc", "ethereum", "eth", "solana", "sol",
	"binance", "coinbase", "defi", "nft", "blockchain", "token",
	"altcoin", "memecoin", "airdrop", "whale", "dex", "cex",
	"staking", "mining", "web3", "metaverse", "ai agent",
}

// GoogleTrendsProvider reads search interest from the unauthenticated Trends widgets.
type GoogleTrendsProvider struct {
	up        *upstream
	tracer    trace.Tracer
	allowList []string
}

// NewGoogleTrendsProvider builds a client filtering daily trends by allowList
// (DefaultCryptoKeywords when empty).
func NewGoogleTrendsProvider(tracer trace.Tracer, allowList []string, opts ...Option) *GoogleTrendsProvider {
	if len(allowList) == 0 {
		allowList = DefaultCryptoKeywords
	}
	lowered := make([]string, 0, len(allowList))
	for _, kw := range allowList {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &GoogleTrendsProvider{
		up:        newUpstream("google_trends", googleTrendsBaseURL, tracer, NewRateLimiter(5, 2*time.Second), opts),
		tracer:    tracer,
		allowList: lowered,
	}
}

type trendsExploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

type trendsMultilineResponse struct {
	Default struct {
		TimelineData []struct {
			Value []float64 `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// Interest scores each keyword over the last 7 days. Keywords are sent in
// batches of five; a failed batch contributes nothing.
func (p *GoogleTrendsProvider) Interest(ctx context.Context, keywords []string) []KeywordInterest {
	ctx, span := p.tracer.Start(ctx, "google_trends.interest", trace.WithAttributes(attribute.Int("keywords", len(keywords))))
	defer span.End()

	out := make([]KeywordInterest, 0, len(keywords))
	for start := 0; start < len(keywords); start += interestBatchSize {
		end := start + interestBatchSize
		if end > len(keywords) {
			end = len(keywords)
		}
		batch := keywords[start:end]
		series, err := p.timeline(ctx, batch)
		if err != nil {
			p.up.report("interest", err)
			continue
		}
		for i, kw := range batch {
			values := make([]float64, 0, len(series))
			for _, point := range series {
				v := 0.0
				if i < len(point) {
					v = point[i]
				}
				values = append(values, v)
			}
			score, rising := ScoreSeries(values)
			out = append(out, KeywordInterest{Keyword: kw, Score: score, Rising: rising})
		}
	}
	return out
}

// ScoreSeries reduces an interest series to its rounded mean and a rising flag
// (second-half mean strictly above first-half mean, split at floor(n/2)).
func ScoreSeries(values []float64) (int, bool) {
	if len(values) == 0 {
		return 0, false
	}
	score := int(math.Round(mean(values)))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	mid := len(values) / 2
	return score, mean(values[mid:]) > mean(values[:mid])
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func (p *GoogleTrendsProvider) timeline(ctx context.Context, batch []string) ([][]float64, error) {
	type comparisonItem struct {
		Keyword string `json:"keyword"`
		Geo     string `json:"geo"`
		Time    string `json:"time"`
	}
	items := make([]comparisonItem, 0, len(batch))
	for _, kw := range batch {
		items = append(items, comparisonItem{Keyword: kw, Time: interestWindow})
	}
	req, err := json.Marshal(map[string]any{
		"comparisonItem": items,
		"category":       0,
		"property":       "",
	})
	if err != nil {
		return nil, err
	}

	var explore trendsExploreResponse
	if err := p.getGuarded(ctx, "/trends/api/explore", url.Values{
		"hl":  {"en-US"},
		"tz":  {"0"},
		"req": {string(req)},
	}, &explore); err != nil {
		return nil, fmt.Errorf("explore: %w", err)
	}

	for _, w := range explore.Widgets {
		if w.ID != "TIMESERIES" {
			continue
		}
		var data trendsMultilineResponse
		if err := p.getGuarded(ctx, "/trends/api/widgetdata/multiline", url.Values{
			"hl":    {"en-US"},
			"tz":    {"0"},
			"req":   {string(w.Request)},
			"token": {w.Token},
		}, &data); err != nil {
			return nil, fmt.Errorf("multiline: %w", err)
		}
		series := make([][]float64, 0, len(data.Default.TimelineData))
		for _, point := range data.Default.TimelineData {
			series = append(series, point.Value)
		}
		return series, nil
	}
	return nil, nil
}

// DailyTrends returns the top daily trending searches for geo.
func (p *GoogleTrendsProvider) DailyTrends(ctx context.Context, geo string) []DailyTrend {
	ctx, span := p.tracer.Start(ctx, "google_trends.daily", trace.WithAttributes(attribute.String("geo", geo)))
	defer span.End()

	var raw struct {
		Default struct {
			TrendingSearchesDays []struct {
				TrendingSearches []struct {
					Title struct {
						Query string `json:"query"`
					} `json:"title"`
					FormattedTraffic string `json:"formattedTraffic"`
					RelatedQueries   []struct {
						Query string `json:"query"`
					} `json:"relatedQueries"`
					Articles []struct {
						Source  string `json:"source"`
						TimeAgo string `json:"timeAgo"`
					} `json:"articles"`
				} `json:"trendingSearches"`
			} `json:"trendingSearchesDays"`
		} `json:"default"`
	}
	if err := p.getGuarded(ctx, "/trends/api/dailytrends", url.Values{
		"hl":  {"en-US"},
		"tz":  {"0"},
		"geo": {geo},
		"ns":  {"15"},
	}, &raw); err != nil {
		p.up.report("daily", err)
		return nil
	}
	if len(raw.Default.TrendingSearchesDays) == 0 {
		return nil
	}

	searches := raw.Default.TrendingSearchesDays[0].TrendingSearches
	if len(searches) > dailyTrendsLimit {
		searches = searches[:dailyTrendsLimit]
	}
	out := make([]DailyTrend, 0, len(searches))
	for _, s := range searches {
		trend := DailyTrend{
			Title:          firstNonEmpty(s.Title.Query, "Unknown"),
			Traffic:        firstNonEmpty(s.FormattedTraffic, "0"),
			RelatedQueries: make([]string, 0, len(s.RelatedQueries)),
			Source:         "Google",
		}
		for _, q := range s.RelatedQueries {
			trend.RelatedQueries = append(trend.RelatedQueries, q.Query)
		}
		if len(s.Articles) > 0 {
			trend.Source = firstNonEmpty(s.Articles[0].Source, "Google")
			trend.TimeAgo = s.Articles[0].TimeAgo
		}
		out = append(out, trend)
	}
	return out
}

// CryptoDailyTrends keeps US daily trends whose title or related queries hit the allow-list.
func (p *GoogleTrendsProvider) CryptoDailyTrends(ctx context.Context) []DailyTrend {
	return FilterTrends(p.DailyTrends(ctx, "US"), p.allowList)
}

// FilterTrends matches lower-cased keywords as substrings of title plus related queries.
func FilterTrends(trends []DailyTrend, keywords []string) []DailyTrend {
	out := make([]DailyTrend, 0, len(trends))
	for _, t := range trends {
		text := strings.ToLower(t.Title + " " + strings.Join(t.RelatedQueries, " "))
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Ping reports whether the daily feed answers.
func (p *GoogleTrendsProvider) Ping(ctx context.Context) error {
	var raw json.RawMessage
	return p.getGuarded(ctx, "/trends/api/dailytrends", url.Values{"hl": {"en-US"}, "geo": {"US"}}, &raw)
}

// getGuarded strips the anti-JSON-hijacking prefix Trends puts before every body.
func (p *GoogleTrendsProvider) getGuarded(ctx context.Context, path string, q url.Values, v any) error {
	body, err := p.up.get(ctx, path, q)
	if err != nil {
		return err
	}
	idx := bytes.IndexByte(body, '{')
	if idx < 0 {
		return fmt.Errorf("%w: no JSON object in trends response", ErrMalformed)
	}
	return decode(body[idx:], v)
}
