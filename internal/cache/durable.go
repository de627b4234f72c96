package cache

import (
	"context"
	"errors"

	"trendpulse/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Durable is the best-effort last-known-good cache used by the aggregator.
// Writes never fail the caller and reads never return an error.
type Durable struct {
	store    Store
	tracer   trace.Tracer
	observer Observer
}

// NewDurable wraps store. observer may be nil.
func NewDurable(store Store, tracer trace.Tracer, observer Observer) *Durable {
	return &Durable{store: store, tracer: tracer, observer: observer}
}

// Backend names the underlying store.
func (d *Durable) Backend() string {
	return d.store.Name()
}

// Write replaces the batch for kind. Failures are logged and dropped.
func (d *Durable) Write(ctx context.Context, kind Kind, items []domain.NormalizedAsset) {
	ctx, span := d.tracer.Start(ctx, "cache.write", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("backend", d.store.Name()),
		attribute.Int("items", len(items)),
	))
	defer span.End()

	if err := d.store.Save(ctx, kind, items); err != nil {
		span.RecordError(err)
		d.observe("write", kind, "error")
		log.Error().Err(err).Str("kind", string(kind)).Str("backend", d.store.Name()).Msg("cache write failed")
		return
	}
	d.observe("write", kind, "ok")
}

// Read returns the stored batch, or an empty batch on miss or corruption.
func (d *Durable) Read(ctx context.Context, kind Kind) []domain.NormalizedAsset {
	ctx, span := d.tracer.Start(ctx, "cache.read", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("backend", d.store.Name()),
	))
	defer span.End()

	items, err := d.store.Load(ctx, kind)
	switch {
	case errors.Is(err, ErrMiss):
		d.observe("read", kind, "miss")
		return []domain.NormalizedAsset{}
	case err != nil:
		span.RecordError(err)
		d.observe("read", kind, "error")
		log.Error().Err(err).Str("kind", string(kind)).Str("backend", d.store.Name()).Msg("cache read failed")
		return []domain.NormalizedAsset{}
	}

	d.observe("read", kind, "hit")
	out := make([]domain.NormalizedAsset, 0, len(items))
	for _, item := range items {
		item.Normalize()
		out = append(out, item)
	}
	return out
}

func (d *Durable) observe(op string, kind Kind, outcome string) {
	if d.observer != nil {
		d.observer.ObserveCache(op, string(kind), outcome)
	}
}
