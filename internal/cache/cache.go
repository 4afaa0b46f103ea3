// Package cache keeps finished forecasts so they can be fetched by ID.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/league-montecarlo/internal/forecast"
)

var ErrCacheMiss = errors.New("forecast not cached")

const keyPrefix = "simulation:"

// ForecastCache stores forecasts by ID.
type ForecastCache interface {
	Put(ctx context.Context, f *forecast.Forecast) error
	Get(ctx context.Context, id string) (*forecast.Forecast, error)
}

func forecastKey(id string) string {
	return keyPrefix + id
}

// RedisCache stores forecasts as JSON under "simulation:<id>".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewRedisCache parses url and pings the server.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration, log logrus.FieldLogger) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisCacheWithClient(client, ttl, log), nil
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RedisCache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: log.WithField("component", "forecast_cache"),
	}
}

func (c *RedisCache) Put(ctx context.Context, f *forecast.Forecast) error {
	if c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling forecast: %w", err)
	}
	key := forecastKey(f.ID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to cache forecast")
		return fmt.Errorf("caching forecast: %w", err)
	}
	c.logger.WithFields(logrus.Fields{"key": key, "ttl": c.ttl}).Debug("Cached forecast")
	return nil
}

func (c *RedisCache) Get(ctx context.Context, id string) (*forecast.Forecast, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}
	key := forecastKey(id)
	result, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.WithField("key", key).Debug("Cache miss for forecast")
			return nil, fmt.Errorf("%w: %s", ErrCacheMiss, id)
		}
		return nil, fmt.Errorf("reading forecast: %w", err)
	}

	var f forecast.Forecast
	if err := json.Unmarshal([]byte(result), &f); err != nil {
		return nil, fmt.Errorf("unmarshaling forecast: %w", err)
	}
	return &f, nil
}

func (c *RedisCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// MemoryCache is the in-process fallback used when no Redis URL is set.
// Entries expire after ttl; ttl <= 0 keeps them forever.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	forecast *forecast.Forecast
	expires  time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Put(_ context.Context, f *forecast.Forecast) error {
	e := memoryEntry{forecast: f}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[forecastKey(f.ID)] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, id string) (*forecast.Forecast, error) {
	key := forecastKey(id)
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, id)
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, id)
	}
	return e.forecast, nil
}
