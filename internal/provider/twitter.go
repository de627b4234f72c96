package provider

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trendpulse/internal/domain"
	"trendpulse/internal/signal"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	twitterBaseURL     = "https://api.twitter.com"
	maxSentimentQuery  = 5
	twitterQueryPacing = time.Second
)

// TwitterProvider searches recent posts through the X API v2.
type TwitterProvider struct {
	up         *upstream
	tracer     trace.Tracer
	bearer     string
	classifier signal.TextClassifier
}

// NewTwitterProvider builds a client. An empty bearer token yields a client
// whose Available reports false and whose calls return empty results.
// classifier defaults to the lexicon.
func NewTwitterProvider(tracer trace.Tracer, bearer string, classifier signal.TextClassifier, opts ...Option) *TwitterProvider {
	opts = append([]Option{WithRetry(1, 0), WithPace(twitterQueryPacing)}, opts...)
	bearer = strings.TrimSpace(bearer)
	up := newUpstream("twitter", twitterBaseURL, tracer, NewRateLimiter(1, time.Second), opts)
	if bearer != "" {
		up.headers.Set("Authorization", "Bearer "+bearer)
	}
	if classifier == nil {
		classifier = signal.Lexicon{}
	}
	return &TwitterProvider{up: up, tracer: tracer, bearer: bearer, classifier: classifier}
}

// Available reports whether a credential is configured. Safe on a nil receiver.
func (p *TwitterProvider) Available() bool {
	return p != nil && p.bearer != ""
}

type twitterSearchResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		AuthorID      string `json:"author_id"`
		CreatedAt     string `json:"created_at"`
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

// SearchMentions returns recent original English posts about query. It returns
// nil when the client is not configured or the request fails.
func (p *TwitterProvider) SearchMentions(ctx context.Context, query string, max int) *Mention {
	if !p.Available() {
		return nil
	}
	ctx, span := p.tracer.Start(ctx, "twitter.search", trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	if max > 100 {
		max = 100
	}
	if max < 10 {
		max = 10
	}
	q := url.Values{
		"query":        {query + " crypto -is:retweet lang:en"},
		"max_results":  {strconv.Itoa(max)},
		"tweet.fields": {"created_at,public_metrics,text"},
		"user.fields":  {"username"},
		"expansions":   {"author_id"},
	}
	var raw twitterSearchResponse
	if err := p.up.getJSON(ctx, "/2/tweets/search/recent", q, &raw); err != nil {
		p.up.report("search", err)
		return nil
	}

	mention := &Mention{Query: query, Sentiment: domain.SentimentNeutral, Tweets: []Tweet{}}
	if len(raw.Data) == 0 {
		return mention
	}

	users := make(map[string]string, len(raw.Includes.Users))
	for _, u := range raw.Includes.Users {
		users[u.ID] = u.Username
	}
	texts := make([]string, 0, len(raw.Data))
	for _, t := range raw.Data {
		author, ok := users[t.AuthorID]
		if !ok {
			author = "unknown"
		}
		mention.Tweets = append(mention.Tweets, Tweet{
			ID:        t.ID,
			Text:      t.Text,
			Author:    author,
			CreatedAt: t.CreatedAt,
			Likes:     t.PublicMetrics.LikeCount,
			Retweets:  t.PublicMetrics.RetweetCount,
		})
		texts = append(texts, t.Text)
	}
	mention.Mentions = raw.Meta.ResultCount
	if mention.Mentions == 0 {
		mention.Mentions = len(mention.Tweets)
	}
	mention.Sentiment = p.classifier.Classify(ctx, strings.Join(texts, " "))
	return mention
}

// CountTweets sums the daily post counts for query over the last week.
func (p *TwitterProvider) CountTweets(ctx context.Context, query string) int {
	if !p.Available() {
		return 0
	}
	ctx, span := p.tracer.Start(ctx, "twitter.count", trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	var raw struct {
		Data []struct {
			TweetCount int `json:"tweet_count"`
		} `json:"data"`
	}
	q := url.Values{
		"query":       {query + " crypto -is:retweet"},
		"granularity": {"day"},
	}
	if err := p.up.getJSON(ctx, "/2/tweets/counts/recent", q, &raw); err != nil {
		p.up.report("count", err)
		return 0
	}
	total := 0
	for _, d := range raw.Data {
		total += d.TweetCount
	}
	return total
}

// SocialSentiment searches at most five queries, one second apart.
func (p *TwitterProvider) SocialSentiment(ctx context.Context, queries []string) []Mention {
	if !p.Available() {
		log.Info().Msg("no twitter bearer token, skipping social sentiment")
		return nil
	}
	if len(queries) > maxSentimentQuery {
		queries = queries[:maxSentimentQuery]
	}
	out := make([]Mention, 0, len(queries))
	for i, q := range queries {
		if i > 0 {
			if err := p.up.wait(ctx); err != nil {
				break
			}
		}
		if m := p.SearchMentions(ctx, q, 10); m != nil {
			out = append(out, *m)
		}
	}
	return out
}
