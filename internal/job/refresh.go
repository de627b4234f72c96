package job

import (
	"context"
	"time"

	"trendpulse/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AssetRefresher is the part of the aggregator that writes the durable cache.
type AssetRefresher interface {
	Trending(ctx context.Context) domain.AssetBatch
	Binance(ctx context.Context) domain.AssetBatch
	Alpha(ctx context.Context) domain.AssetBatch
}

// RefreshJob keeps the last-known-good cache warm so cold requests rarely hit
// an empty primary provider.
type RefreshJob struct {
	tracer       trace.Tracer
	feed         AssetRefresher
	pollInterval time.Duration
	alphaDelay   time.Duration
}

func NewRefreshJob(tracer trace.Tracer, feed AssetRefresher, pollIntervalSecs int) *RefreshJob {
	if pollIntervalSecs <= 0 {
		pollIntervalSecs = 300
	}
	return &RefreshJob{
		tracer:       tracer,
		feed:         feed,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
		alphaDelay:   30 * time.Second,
	}
}

// Start launches the refresh loops. Blocks until ctx is cancelled.
func (j *RefreshJob) Start(ctx context.Context) {
	log.Info().Dur("interval", j.pollInterval).Msg("refresh job starting")

	// Market kinds share the CoinGecko budget, so they run back to back.
	go j.pollLoop(ctx, "market", 0, j.pollInterval, func(ctx context.Context) domain.Provenance {
		trending := j.feed.Trending(ctx)
		if p := j.feed.Binance(ctx).Provenance; p != domain.ProvenanceLive {
			return p
		}
		return trending.Provenance
	})

	// Alpha enrichment is slow and sequential; stagger it and run half as often.
	go j.pollLoop(ctx, "alpha", j.alphaDelay, 2*j.pollInterval, func(ctx context.Context) domain.Provenance {
		return j.feed.Alpha(ctx).Provenance
	})

	<-ctx.Done()
	log.Info().Msg("refresh job stopped")
}

func (j *RefreshJob) pollLoop(ctx context.Context, name string, delay, interval time.Duration, fn func(context.Context) domain.Provenance) {
	if delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	j.runOnce(ctx, name, fn)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx, name, fn)
		}
	}
}

func (j *RefreshJob) runOnce(ctx context.Context, name string, fn func(context.Context) domain.Provenance) {
	ctx, span := j.tracer.Start(ctx, "refresh-job.run-once", trace.WithAttributes(attribute.String("loop", name)))
	defer span.End()

	provenance := fn(ctx)
	if provenance != domain.ProvenanceLive {
		log.Warn().Str("loop", name).Str("provenance", string(provenance)).Msg("refresh did not reach live data")
	}
}
