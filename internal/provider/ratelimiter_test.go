package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBurstThenBlocks(t *testing.T) {
	limiter := NewRateLimiter(2, time.Hour)

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow(), "third call inside the window must wait")
}

func TestRateLimiterClampsTokens(t *testing.T) {
	limiter := NewRateLimiter(0, time.Hour)

	assert.True(t, limiter.Allow(), "a non-positive burst still admits one call")
	assert.False(t, limiter.Allow())
}

func TestRateLimiterRefills(t *testing.T) {
	limiter := NewRateLimiter(1, 5*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))
	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiterWaitStopsOnCancel(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.Error(t, limiter.Wait(ctx))
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestNilRateLimiterNeverBlocks(t *testing.T) {
	var limiter *RateLimiter

	assert.NoError(t, limiter.Wait(context.Background()))
	assert.True(t, limiter.Allow())
}
