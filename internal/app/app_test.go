package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"trendpulse/internal/config"
	"trendpulse/internal/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func testRecorder() *metrics.Recorder {
	return metrics.NewWithRegistry(prometheus.NewRegistry())
}

func TestBuildMemoryBackend(t *testing.T) {
	cfg := &config.Config{CacheBackend: config.CacheMemory, RefreshPollSecs: 60, ScannerIntervalMins: 30}
	a := Build(context.Background(), cfg, testTracer(), testRecorder())
	defer a.Close()

	require.NotNil(t, a.Feed)
	require.NotNil(t, a.Refresh)
	assert.Equal(t, "memory", a.Cache.Backend())
	assert.False(t, a.Twitter.Available())
}

func TestBuildScannerOnlyWhenEnabled(t *testing.T) {
	cfg := &config.Config{CacheBackend: config.CacheMemory}
	a := Build(context.Background(), cfg, testTracer(), testRecorder())
	defer a.Close()

	assert.Nil(t, a.Scanner)
	assert.True(t, a.ScanRunner() == nil, "disabled scanner must surface as a nil interface")

	cfg.ScannerEnabled = true
	a = Build(context.Background(), cfg, testTracer(), testRecorder())
	defer a.Close()

	require.NotNil(t, a.Scanner)
	assert.NotNil(t, a.ScanRunner())
}

func TestBuildFileBackendIsDefault(t *testing.T) {
	cfg := &config.Config{CacheBackend: config.CacheFile, DataDir: t.TempDir(), TwitterBearerToken: "tok"}
	a := Build(context.Background(), cfg, testTracer(), testRecorder())

	assert.Equal(t, "file", a.Cache.Backend())
	assert.True(t, a.Twitter.Available())
}

func TestBuildFallsBackWhenRedisDown(t *testing.T) {
	orig := initRedisFunc
	defer func() { initRedisFunc = orig }()
	initRedisFunc = func(context.Context, string) (*redis.Client, error) {
		return nil, errors.New("connection refused")
	}

	cfg := &config.Config{CacheBackend: config.CacheRedis, RedisURL: "localhost:1", DataDir: t.TempDir()}
	a := Build(context.Background(), cfg, testTracer(), testRecorder())

	assert.Equal(t, "file", a.Cache.Backend())
}

func TestBuildRedisBackendRegistersCloser(t *testing.T) {
	orig := initRedisFunc
	defer func() { initRedisFunc = orig }()
	initRedisFunc = func(context.Context, string) (*redis.Client, error) {
		return redis.NewClient(&redis.Options{Addr: "localhost:1"}), nil
	}

	cfg := &config.Config{CacheBackend: config.CacheRedis}
	a := Build(context.Background(), cfg, testTracer(), testRecorder())

	assert.Equal(t, "redis", a.Cache.Backend())
	assert.Len(t, a.closers, 1)
	a.Close()
	assert.Empty(t, a.closers)
}

func TestBuildFallsBackWhenPostgresDown(t *testing.T) {
	orig := initPostgresFunc
	defer func() { initPostgresFunc = orig }()
	initPostgresFunc = func(context.Context, string) (*pgxpool.Pool, error) {
		return nil, errors.New("no dsn")
	}

	cfg := &config.Config{CacheBackend: config.CachePostgres, DataDir: t.TempDir()}
	a := Build(context.Background(), cfg, testTracer(), testRecorder())

	assert.Equal(t, "file", a.Cache.Backend())
}

func TestAggregatorConfig(t *testing.T) {
	cfg := &config.Config{
		AlphaEnrichLimit: 7,
		CoinGeckoAPIKey:  "key",
		NewsTimezone:     "Asia/Tokyo",
		Keywords:         config.Keywords{SocialHashtags: []string{"#Pepe"}},
	}
	out := AggregatorConfig(cfg)

	assert.Equal(t, 7, out.AlphaLimit)
	assert.True(t, out.MarketKeyed)
	assert.Equal(t, []string{"#Pepe"}, out.SocialHashtags)
	assert.Equal(t, []string{"Pepe"}, out.SocialKeywords)
	assert.Equal(t, "Asia/Tokyo", out.Location.String())

	out = AggregatorConfig(&config.Config{NewsTimezone: "Mars/Olympus"})
	assert.Equal(t, time.UTC, out.Location)
	assert.False(t, out.MarketKeyed)
}
