package cache

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"trendpulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	payload []byte
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.payload
	return nil
}

type fakePool struct {
	rows    map[string][]byte
	execSQL []string
}

func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execSQL = append(p.execSQL, sql)
	p.rows[args[0].(string)] = args[1].([]byte)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	payload, ok := p.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{payload: payload}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	pool := &fakePool{rows: map[string][]byte{}}
	store := NewPostgresStore(pool, testTracer())
	items := []domain.NormalizedAsset{sampleAsset("pepe")}

	require.NoError(t, store.Save(context.Background(), KindBinanceFomo, items))
	require.Len(t, pool.execSQL, 1)
	assert.True(t, strings.Contains(pool.execSQL[0], "ON CONFLICT (kind) DO UPDATE"))

	var stored []domain.NormalizedAsset
	require.NoError(t, json.Unmarshal(pool.rows["binance_fomo"], &stored))
	assert.Equal(t, items, stored)

	got, err := store.Load(context.Background(), KindBinanceFomo)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestPostgresStoreMiss(t *testing.T) {
	store := NewPostgresStore(&fakePool{rows: map[string][]byte{}}, testTracer())
	_, err := store.Load(context.Background(), KindTrending)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestPostgresStoreCorruptPayload(t *testing.T) {
	pool := &fakePool{rows: map[string][]byte{"trending": []byte(`{"not":"an array"}`)}}
	store := NewPostgresStore(pool, testTracer())
	_, err := store.Load(context.Background(), KindTrending)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
