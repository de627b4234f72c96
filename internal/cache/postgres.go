package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"trendpulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

// PgxPool is the subset of *pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	upsertBatchSQL = `INSERT INTO asset_batches (kind, payload, item_count, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (kind) DO UPDATE SET
		     payload = EXCLUDED.payload,
		     item_count = EXCLUDED.item_count,
		     updated_at = EXCLUDED.updated_at`
	selectBatchSQL = `SELECT payload FROM asset_batches WHERE kind = $1`
)

// PostgresStore keeps one JSONB row per kind in asset_batches (see cmd/migrate).
type PostgresStore struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPostgresStore(pool PgxPool, tracer trace.Tracer) *PostgresStore {
	return &PostgresStore{pool: pool, tracer: tracer}
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Save(ctx context.Context, kind Kind, items []domain.NormalizedAsset) error {
	ctx, span := s.tracer.Start(ctx, "asset-batch-repo.upsert")
	defer span.End()

	if items == nil {
		items = []domain.NormalizedAsset{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	if _, err := s.pool.Exec(ctx, upsertBatchSQL, string(kind), payload, len(items)); err != nil {
		return fmt.Errorf("upsert %s: %w", kind, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, kind Kind) ([]domain.NormalizedAsset, error) {
	ctx, span := s.tracer.Start(ctx, "asset-batch-repo.get")
	defer span.End()

	var payload []byte
	err := s.pool.QueryRow(ctx, selectBatchSQL, string(kind)).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", kind, err)
	}
	var items []domain.NormalizedAsset
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return items, nil
}
