package cache

import (
	"context"
	"errors"

	"trendpulse/internal/domain"
)

// Kind names one aggregation's last-known-good batch.
type Kind string

const (
	KindTrending     Kind = "trending"
	KindBinanceFomo  Kind = "binance_fomo"
	KindAlphaBinance Kind = "alpha_binance"
)

// Kinds lists every cached aggregation kind.
var Kinds = []Kind{KindTrending, KindBinanceFomo, KindAlphaBinance}

// FileName is the on-disk name used by the file backend.
func (k Kind) FileName() string {
	if k == KindTrending {
		return "coins.json"
	}
	return string(k) + ".json"
}

// ErrMiss means nothing has been stored for the kind yet.
var ErrMiss = errors.New("cache miss")

// Store is a backend holding one batch per kind. Save replaces the batch atomically.
type Store interface {
	Name() string
	Save(ctx context.Context, kind Kind, items []domain.NormalizedAsset) error
	Load(ctx context.Context, kind Kind) ([]domain.NormalizedAsset, error)
}

// Observer receives cache operation outcomes.
type Observer interface {
	ObserveCache(op, kind, outcome string)
}
