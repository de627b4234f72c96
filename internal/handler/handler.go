package handler

import (
	"context"
	"net/http"

	"trendpulse/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// Feed is the aggregation surface served over HTTP.
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

type Handler struct {
	tracer  trace.Tracer
	feed    Feed
	tweets  TweetCounter
	scanner ScanRunner
	metrics http.Handler
}

func New(tracer trace.Tracer, feed Feed) *Handler {
	return &Handler{tracer: tracer, feed: feed}
}

func (h *Handler) SetTweetCounter(c TweetCounter) {
	h.tweets = c
}

func (h *Handler) SetScanRunner(r ScanRunner) {
	h.scanner = r
}

func (h *Handler) SetMetricsHandler(m http.Handler) {
	h.metrics = m
}

// RegisterRoutes mounts the public routes. Everything under /api requires
// apiKey when it is non-empty.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/trending", h.GetTrending)
	api.GET("/binance-fomo", h.GetBinanceFomo)
	api.GET("/alpha-binance", h.GetAlphaBinance)
	api.GET("/social-sentiment", h.GetSocialSentiment)
	api.GET("/breaking-news", h.GetBreakingNews)
	api.GET("/status", h.GetStatus)
	api.GET("/tweet-count", h.GetTweetCount)
	api.POST("/scanner/run", h.TriggerScan)
}
