// Package cache keeps the last known view count per URI in Redis so event
// reads can serve stale counts while the analytics service is unavailable.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "ewm:views:"

// ViewCache stores view counts keyed by URI.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewViewCache wraps client. Entries expire after ttl.
func NewViewCache(client *redis.Client, ttl time.Duration) *ViewCache {
	return &ViewCache{client: client, ttl: ttl}
}

// NewClient opens a Redis client and checks connectivity.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// Get returns the cached counts for uris. URIs with no entry are absent.
func (c *ViewCache) Get(ctx context.Context, uris []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(uris))
	if len(uris) == 0 {
		return counts, nil
	}

	keys := make([]string, len(uris))
	for i, uri := range uris {
		keys[i] = keyPrefix + uri
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("mget views: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		counts[uris[i]] = n
	}
	return counts, nil
}

// Put stores counts in one pipeline round trip.
func (c *ViewCache) Put(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for uri, n := range counts {
			p.Set(ctx, keyPrefix+uri, n, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store views: %w", err)
	}
	return nil
}
