package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetTweetCount godoc
// @Summary      Tweet count
// @Description  Number of recent posts matching q over the last 7 days
// @Tags         signals
// @Produce      json
// @Param        q  query  string  true  "Search query"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     APIKeyAuth
// @Router       /api/tweet-count [get]
func (h *Handler) GetTweetCount(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-tweet-count")
	defer span.End()

	if h.tweets == nil || !h.tweets.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "social provider not configured"})
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	span.SetAttributes(attribute.String("query", query))

	c.JSON(http.StatusOK, gin.H{"query": query, "count": h.tweets.CountTweets(ctx, query)})
}

// TriggerScan godoc
// @Summary      Run the background scanner once
// @Description  Refreshes the trending cache from the lowcap scanner feed
// @Tags         ops
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     APIKeyAuth
// @Router       /api/scanner/run [post]
func (h *Handler) TriggerScan(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-scan")
	defer span.End()

	if h.scanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scanner is not enabled"})
		return
	}
	written, err := h.scanner.RunOnce(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "items_written": written})
}
