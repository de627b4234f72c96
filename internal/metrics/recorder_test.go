package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.ObserveUpstream("coingecko", "ok", 120*time.Millisecond)
	r.ObserveUpstream("coingecko", "ok", 80*time.Millisecond)
	r.ObserveUpstream("coingecko", "rate_limited", time.Millisecond)
	r.ObserveAggregation("trending", "live", 10, time.Second)
	r.ObserveCache("write", "trending", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.upstreamTotal.WithLabelValues("coingecko", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.upstreamTotal.WithLabelValues("coingecko", "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.aggregations.WithLabelValues("trending", "live")))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.batchItems.WithLabelValues("trending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheOps.WithLabelValues("write", "trending", "ok")))
}

func TestRecorderHandler(t *testing.T) {
	r := New()
	r.ObserveAggregation("alpha_binance", "cached", 3, time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `trendpulse_aggregator_runs_total{kind="alpha_binance",provenance="cached"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
