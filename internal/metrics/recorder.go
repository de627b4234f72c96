package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trendpulse"

// Recorder implements the provider, aggregator and cache observers using Prometheus.
type Recorder struct {
	registry        *prometheus.Registry
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	aggregations    *prometheus.CounterVec
	aggregationTime *prometheus.HistogramVec
	batchItems      *prometheus.GaugeVec
	cacheOps        *prometheus.CounterVec
}

// New registers every collector on a private registry, including the Go and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers only the application collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		upstreamTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream provider requests by outcome",
		}, []string{"provider", "outcome"}),
		upstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream provider request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		aggregations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "runs_total",
			Help:      "Aggregation runs by kind and provenance",
		}, []string{"kind", "provenance"}),
		aggregationTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "duration_seconds",
			Help:      "Aggregation duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"kind"}),
		batchItems: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "batch_items",
			Help:      "Item count of the last batch per kind",
		}, []string{"kind"}),
		cacheOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Durable cache operations by kind and outcome",
		}, []string{"op", "kind", "outcome"}),
	}
}

// ObserveUpstream records one upstream attempt.
func (r *Recorder) ObserveUpstream(provider, outcome string, elapsed time.Duration) {
	r.upstreamTotal.WithLabelValues(provider, outcome).Inc()
	r.upstreamLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveAggregation records a finished aggregation run.
func (r *Recorder) ObserveAggregation(kind, provenance string, items int, elapsed time.Duration) {
	r.aggregations.WithLabelValues(kind, provenance).Inc()
	r.aggregationTime.WithLabelValues(kind).Observe(elapsed.Seconds())
	r.batchItems.WithLabelValues(kind).Set(float64(items))
}

// ObserveCache records a cache read or write. outcome is hit, miss, ok or error.
func (r *Recorder) ObserveCache(op, kind, outcome string) {
	r.cacheOps.WithLabelValues(op, kind, outcome).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
