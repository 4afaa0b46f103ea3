package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/league-montecarlo/internal/forecast"
)

func TestForecastKey(t *testing.T) {
	assert.Equal(t, "simulation:abc-123", forecastKey("abc-123"))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	now := time.Date(2017, 7, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	f := &forecast.Forecast{ID: "run-1", Iterations: 40}
	require.NoError(t, c.Put(ctx, f))

	got, err := c.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Same(t, f, got)

	_, err = c.Get(ctx, "run-2")
	assert.ErrorIs(t, err, ErrCacheMiss)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "run-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheWithoutTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	require.NoError(t, c.Put(ctx, &forecast.Forecast{ID: "keep"}))

	c.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	_, err := c.Get(ctx, "keep")
	assert.NoError(t, err)
}

func TestRedisCacheRequiresClient(t *testing.T) {
	c := NewRedisCacheWithClient(nil, time.Minute, nil)

	err := c.Put(context.Background(), &forecast.Forecast{ID: "x"})
	assert.Error(t, err)
	_, err = c.Get(context.Background(), "x")
	assert.Error(t, err)
	assert.NoError(t, c.Close())
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-url", time.Minute, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse Redis URL")
}

var (
	_ ForecastCache = (*RedisCache)(nil)
	_ ForecastCache = (*MemoryCache)(nil)
)
