package cache

import (
	"context"
	"sync"

	"trendpulse/internal/domain"
)

// MemoryStore keeps batches in process; used for tests and ephemeral runs.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[Kind][]domain.NormalizedAsset
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{batches: make(map[Kind][]domain.NormalizedAsset)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Save(ctx context.Context, kind Kind, items []domain.NormalizedAsset) error {
	copied := cloneAssets(items)
	s.mu.Lock()
	s.batches[kind] = copied
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, kind Kind) ([]domain.NormalizedAsset, error) {
	s.mu.RLock()
	items, ok := s.batches[kind]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	return cloneAssets(items), nil
}

func cloneAssets(items []domain.NormalizedAsset) []domain.NormalizedAsset {
	out := make([]domain.NormalizedAsset, len(items))
	for i, item := range items {
		item.Sparkline = append([]float64(nil), item.Sparkline...)
		item.TrendSources = append([]domain.TrendSource(nil), item.TrendSources...)
		out[i] = item
	}
	return out
}
