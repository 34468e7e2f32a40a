// Package cache stores search API responses in Redis so repeated runs can replay them
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/clover/pkg/metrics"
)

// Config holds Redis connection and entry settings
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// Cache is a Redis-backed response cache
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger ectologger.Logger
}

// NewCache connects to Redis and verifies the connection
func NewCache(cfg Config, logger ectologger.Logger) (*Cache, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Infof("Connected to Redis response cache at %s", addr)

	return &Cache{
		rdb:    rdb,
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Get returns the cached body for key. A miss returns false without error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return body, true, nil
}

// Set stores body under key with the configured TTL
func (c *Cache) Set(ctx context.Context, key string, body []byte) error {
	if err := c.rdb.Set(ctx, c.prefix+key, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	c.logger.WithContext(ctx).Debugf("Cached response %s for %s", key, c.ttl)
	return nil
}

// Purge deletes every entry under the cache prefix and returns the number removed
func (c *Cache) Purge(ctx context.Context) (int, error) {
	var removed int
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("cache purge: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("cache purge: %w", err)
	}
	return removed, nil
}
