package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CacheKeyPrefix namespaces response cache entries.
	CacheKeyPrefix = "cache:"
	// NewsListPath is the route whose responses are cached.
	NewsListPath = "/api/news"

	DefaultCacheTTL = time.Hour
	scanBatch       = 100
)

// ResponseCache stores rendered HTTP response bodies keyed by request URI.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Get returns the cached body for uri. ok is false on a miss.
func (c *ResponseCache) Get(ctx context.Context, uri string) (body []byte, ok bool, err error) {
	body, err = c.client.Get(ctx, CacheKeyPrefix+uri).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return body, true, nil
}

func (c *ResponseCache) Set(ctx context.Context, uri string, body []byte) error {
	if err := c.client.Set(ctx, CacheKeyPrefix+uri, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops every cached variant of the news listing, whatever its
// query string.
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	return c.deletePrefix(ctx, CacheKeyPrefix+NewsListPath)
}

func (c *ResponseCache) deletePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()

	keys := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
