package handler

import (
	"net/http"
	"strconv"

	"trendpulse/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	headerDataSource = "X-Data-Source"
	headerItemCount  = "X-Item-Count"
)

// writeBatch sends items as a bare JSON array tagged with its provenance.
func writeBatch(c *gin.Context, provenance domain.Provenance, count int, items any, maxAge string) {
	c.Header(headerDataSource, string(provenance))
	c.Header(headerItemCount, strconv.Itoa(count))
	if provenance == domain.ProvenanceLive {
		c.Header("Cache-Control", "public, s-maxage="+maxAge+", stale-while-revalidate=600")
	} else {
		c.Header("Cache-Control", "public, s-maxage=60")
	}
	c.JSON(http.StatusOK, items)
}

// GetTrending godoc
// @Summary      Trending coins
// @Description  Market trending list merged with search and social signals. X-Data-Source reports live, cached or empty.
// @Tags         assets
// @Produce      json
// @Success      200  {array}  domain.NormalizedAsset
// @Security     APIKeyAuth
// @Router       /api/trending [get]
func (h *Handler) GetTrending(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-trending")
	defer span.End()

	batch := h.feed.Trending(ctx)
	span.SetAttributes(attribute.String("provenance", string(batch.Provenance)))
	writeBatch(c, batch.Provenance, len(batch.Items), batch.Items, "300")
}

// GetBinanceFomo godoc
// @Summary      Binance-focused coins
// @Description  Top coins by volume with Binance spot listings and gainers
// @Tags         assets
// @Produce      json
// @Success      200  {array}  domain.NormalizedAsset
// @Security     APIKeyAuth
// @Router       /api/binance-fomo [get]
func (h *Handler) GetBinanceFomo(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-binance-fomo")
	defer span.End()

	batch := h.feed.Binance(ctx)
	span.SetAttributes(attribute.String("provenance", string(batch.Provenance)))
	writeBatch(c, batch.Provenance, len(batch.Items), batch.Items, "300")
}

// GetAlphaBinance godoc
// @Summary      Binance Alpha tokens
// @Description  Early lowcap listings enriched with market data when available
// @Tags         assets
// @Produce      json
// @Success      200  {array}  domain.NormalizedAsset
// @Security     APIKeyAuth
// @Router       /api/alpha-binance [get]
func (h *Handler) GetAlphaBinance(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-alpha-binance")
	defer span.End()

	batch := h.feed.Alpha(ctx)
	span.SetAttributes(attribute.String("provenance", string(batch.Provenance)))
	writeBatch(c, batch.Provenance, len(batch.Items), batch.Items, "600")
}

// GetSocialSentiment godoc
// @Summary      Social sentiment
// @Description  Hashtag mentions and sentiment
// @Tags         signals
// @Produce      json
// @Success      200  {array}  domain.SocialSignal
// @Security     APIKeyAuth
// @Router       /api/social-sentiment [get]
func (h *Handler) GetSocialSentiment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-social-sentiment")
	defer span.End()

	batch := h.feed.SocialSentiment(ctx)
	writeBatch(c, batch.Provenance, len(batch.Items), batch.Items, "300")
}

// GetBreakingNews godoc
// @Summary      Breaking news
// @Description  Up to five lowcap-focused news items
// @Tags         signals
// @Produce      json
// @Success      200  {array}  domain.NewsItem
// @Security     APIKeyAuth
// @Router       /api/breaking-news [get]
func (h *Handler) GetBreakingNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-breaking-news")
	defer span.End()

	batch := h.feed.BreakingNews(ctx)
	writeBatch(c, batch.Provenance, len(batch.Items), batch.Items, "120")
}

// GetStatus godoc
// @Summary      Provider status
// @Description  Connectivity and configuration of every upstream service
// @Tags         health
// @Produce      json
// @Success      200  {object}  domain.StatusReport
// @Security     APIKeyAuth
// @Router       /api/status [get]
func (h *Handler) GetStatus(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-status")
	defer span.End()

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, h.feed.Status(ctx))
}
