package job

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"trendpulse/internal/cache"
	"trendpulse/internal/domain"
	"trendpulse/internal/provider"
	"trendpulse/internal/signal"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	scanTop          = 5
	scanAttempts     = 3
	scanRetryDelay   = 10 * time.Second
	scanWhaleMove    = 30
	scanMinPrice     = 0.001
	scanNoise        = 0.04
	scanBaseDiscount = 0.9
)

var errNoBoosts = errors.New("scanner feed returned no tokens")

type BoostFeed interface {
	TopBoosted(ctx context.Context, limit int) []provider.BoostedToken
}

// CacheWriter is satisfied by *cache.Durable.
type CacheWriter interface {
	Write(ctx context.Context, kind cache.Kind, items []domain.NormalizedAsset)
}

// ScannerJob periodically replaces the trending cache with the most boosted
// DEX tokens. It runs independently of the request path.
type ScannerJob struct {
	tracer   trace.Tracer
	feed     BoostFeed
	cache    CacheWriter
	interval time.Duration

	mu    sync.Mutex
	rnd   signal.RandSource
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewScannerJob(tracer trace.Tracer, feed BoostFeed, writer CacheWriter, intervalMins int) *ScannerJob {
	if intervalMins <= 0 {
		intervalMins = 60
	}
	return &ScannerJob{
		tracer:   tracer,
		feed:     feed,
		cache:    writer,
		interval: time.Duration(intervalMins) * time.Minute,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Start scans immediately and then on every interval. Blocks until ctx is cancelled.
func (j *ScannerJob) Start(ctx context.Context) {
	log.Info().Dur("interval", j.interval).Msg("scanner job starting")
	j.scanWithRetry(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scanner job stopped")
			return
		case <-ticker.C:
			j.scanWithRetry(ctx)
		}
	}
}

func (j *ScannerJob) scanWithRetry(ctx context.Context) {
	for attempt := 1; attempt <= scanAttempts; attempt++ {
		n, err := j.RunOnce(ctx)
		if err == nil {
			log.Info().Int("items", n).Msg("scanner updated trending cache")
			return
		}
		log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", scanAttempts).Msg("scan failed")
		if attempt == scanAttempts {
			log.Error().Err(err).Msg("scanner gave up after all attempts")
			return
		}
		if err := j.sleep(ctx, scanRetryDelay); err != nil {
			return
		}
	}
}

// RunOnce performs a single scan and returns the number of records written.
func (j *ScannerJob) RunOnce(ctx context.Context) (int, error) {
	ctx, span := j.tracer.Start(ctx, "scanner-job.run-once")
	defer span.End()

	j.mu.Lock()
	defer j.mu.Unlock()

	tokens := j.feed.TopBoosted(ctx, scanTop)
	if len(tokens) == 0 {
		span.RecordError(errNoBoosts)
		return 0, errNoBoosts
	}
	if len(tokens) > scanTop {
		tokens = tokens[:scanTop]
	}

	stamp := j.now().UTC().Format("15:04")
	items := make([]domain.NormalizedAsset, 0, len(tokens))
	for idx, t := range tokens {
		items = append(items, j.toAsset(t, idx, stamp))
	}

	j.cache.Write(ctx, cache.KindTrending, items)
	span.SetAttributes(attribute.Int("items", len(items)))
	return len(items), nil
}

func (j *ScannerJob) toAsset(t provider.BoostedToken, idx int, stamp string) domain.NormalizedAsset {
	price := t.Price
	if price <= 0 || math.IsNaN(price) {
		price = scanMinPrice
	}
	change := t.Change24h

	id := strings.ToLower(t.Address)
	if id == "" {
		id = fmt.Sprintf("coin-%d", idx)
	}
	dex := t.DexID
	if dex == "" {
		dex = "DEX"
	}

	return domain.NormalizedAsset{
		ID:              id,
		Name:            t.Name,
		Symbol:          t.Symbol,
		Price:           price,
		Change24h:       math.Round(change*100) / 100,
		TrendSources:    domain.NewTrendSources(domain.SourceMarket),
		TrendScore:      ScanTrendScore(idx, change),
		Sparkline:       j.trendSparkline(price, change),
		Summary:         fmt.Sprintf("(Auto scan %s UTC)\n%s (%s) is #%d on the DexScreener boost board.\nDEX: %s | 24h move: %.2f%%", stamp, t.Name, t.Symbol, idx+1, dex, change),
		ExchangeLabel:   dex,
		Sentiment:       scanSentiment(change),
		Authenticity:    scanAuthenticity(idx, change),
		HasWhaleAlert:   math.Abs(change) > scanWhaleMove,
		MarketCapBucket: signal.MarketCapBucket(t.MarketCap),
	}
}

// ScanTrendScore ranks by board position with a bonus for large moves.
func ScanTrendScore(idx int, change float64) int {
	score := 95 - float64(idx)*7 + math.Min(math.Abs(change)/5, 10)
	score = math.Max(60, score)
	return int(math.Min(math.Round(score), 100))
}

func scanSentiment(change float64) domain.Sentiment {
	switch {
	case change > 20:
		return domain.SentimentBullish
	case change < -10:
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}

func scanAuthenticity(idx int, change float64) domain.Authenticity {
	switch {
	case idx == 0:
		return domain.AuthenticityVerified
	case change > 0:
		return domain.AuthenticityRumor
	default:
		return domain.AuthenticityFUD
	}
}

// trendSparkline ends at price, climbing from 90% of it for rising tokens and
// sliding from 110% otherwise, with ±2% noise. It is a placeholder, not history.
func (j *ScannerJob) trendSparkline(price, change float64) []float64 {
	base := price * scanBaseDiscount
	out := make([]float64, signal.SparklinePoints)
	last := float64(signal.SparklinePoints - 1)
	for i := range out {
		progress := float64(i) / last
		v := price + (price-base)*(1-progress)
		if change > 0 {
			v = base + (price-base)*progress
		}
		noise := v * (j.rnd.Float64()*scanNoise - scanNoise/2)
		out[i] = math.Round((v+noise)*1e6) / 1e6
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
