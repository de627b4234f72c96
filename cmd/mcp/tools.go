package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"trendpulse/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Feed is the aggregation surface exposed as tools.
type Feed interface {
	Trending(ctx context.Context) domain.AssetBatch
	Binance(ctx context.Context) domain.AssetBatch
	Alpha(ctx context.Context) domain.AssetBatch
	SocialSentiment(ctx context.Context) domain.SocialBatch
	BreakingNews(ctx context.Context) domain.NewsBatch
	Status(ctx context.Context) domain.StatusReport
}

type TweetCounter interface {
	Available() bool
	CountTweets(ctx context.Context, query string) int
}

type ScanRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

type noInput struct{}

type countInput struct {
	Query string `json:"query" jsonschema:"search query, for example a token symbol or hashtag"`
}

type toolSet struct {
	feed    Feed
	tweets  TweetCounter
	scanner ScanRunner
	timeout time.Duration
}

func newMCPServer(feed Feed, tweets TweetCounter, scanner ScanRunner, timeout time.Duration) *mcp.Server {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ts := &toolSet{feed: feed, tweets: tweets, scanner: scanner, timeout: timeout}
	server := mcp.NewServer(&mcp.Implementation{Name: "trendpulse", Version: "1.0.0"}, nil)

	addFeedTool(server, ts, "trending", "Trending coins merged with search and social signals", func(ctx context.Context) any {
		return ts.feed.Trending(ctx)
	})
	addFeedTool(server, ts, "binance_fomo", "Top coins by volume with Binance spot listings and gainers", func(ctx context.Context) any {
		return ts.feed.Binance(ctx)
	})
	addFeedTool(server, ts, "alpha_binance", "Binance Alpha early listings with market data when available", func(ctx context.Context) any {
		return ts.feed.Alpha(ctx)
	})
	addFeedTool(server, ts, "social_sentiment", "Hashtag mention counts and sentiment", func(ctx context.Context) any {
		return ts.feed.SocialSentiment(ctx)
	})
	addFeedTool(server, ts, "breaking_news", "Up to five lowcap-focused news items", func(ctx context.Context) any {
		return ts.feed.BreakingNews(ctx)
	})
	addFeedTool(server, ts, "provider_status", "Connectivity and configuration of every upstream service", func(ctx context.Context) any {
		return ts.feed.Status(ctx)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "tweet_count",
		Description: "Number of recent posts on X matching a query over the last 7 days",
	}, ts.tweetCount)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_scanner",
		Description: "Refresh the trending cache from the lowcap scanner feed once",
	}, ts.runScanner)

	return server
}

func addFeedTool(server *mcp.Server, ts *toolSet, name, description string, fetch func(context.Context) any) {
	mcp.AddTool(server, &mcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, any, error) {
			ctx, cancel := context.WithTimeout(ctx, ts.timeout)
			defer cancel()
			start := time.Now()
			res, err := jsonResult(fetch(ctx))
			log.Info().Str("tool", name).Dur("elapsed", time.Since(start)).Msg("mcp tool call")
			return res, nil, err
		})
}

func (ts *toolSet) tweetCount(ctx context.Context, _ *mcp.CallToolRequest, in countInput) (*mcp.CallToolResult, any, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return errorResult("query is required"), nil, nil
	}
	if ts.tweets == nil || !ts.tweets.Available() {
		return errorResult("social provider not configured"), nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, ts.timeout)
	defer cancel()
	res, err := jsonResult(map[string]any{"query": query, "count": ts.tweets.CountTweets(ctx, query)})
	return res, nil, err
}

func (ts *toolSet) runScanner(ctx context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, any, error) {
	if ts.scanner == nil {
		return errorResult("scanner not configured"), nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, ts.timeout)
	defer cancel()
	n, err := ts.scanner.RunOnce(ctx)
	if err != nil {
		return errorResult("scan failed: " + err.Error()), nil, nil
	}
	res, err := jsonResult(map[string]any{"status": "ok", "items_written": n})
	return res, nil, err
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: msg}}}
}
