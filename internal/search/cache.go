// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Akshath47/deep-research/pkg/types"
)

const cachePrefix = "deep-research:search:"

// CachedProvider serves repeated requests from Redis. Cache failures are
// logged and bypassed; they never fail a search.
type CachedProvider struct {
	Next   Provider
	Redis  *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

// NewCachedProvider wraps next with a Redis cache.
func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{Next: next, Redis: client, TTL: ttl, Logger: logger}
}

// Name returns the wrapped provider's name.
func (c *CachedProvider) Name() string { return c.Next.Name() }

// Search returns the cached response for r, or queries Next and caches a
// successful response.
func (c *CachedProvider) Search(ctx context.Context, r Request) ([]types.SearchResult, error) {
	key, err := cacheKey(c.Next.Name(), r)
	if err != nil {
		return c.Next.Search(ctx, r)
	}

	data, err := c.Redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []types.SearchResult
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			c.Logger.Debug("search cache hit", zap.String("query", r.Query))
			return cached, nil
		}
		c.Logger.Warn("discarding corrupt cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.Logger.Warn("search cache unavailable", zap.Error(err))
	}

	results, err := c.Next.Search(ctx, r)
	if err != nil {
		return nil, err
	}

	if encoded, encErr := json.Marshal(results); encErr == nil {
		if setErr := c.Redis.Set(ctx, key, encoded, c.TTL).Err(); setErr != nil {
			c.Logger.Warn("search cache write failed", zap.Error(setErr))
		}
	}
	return results, nil
}

func cacheKey(provider string, r Request) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return cachePrefix + provider + ":" + hex.EncodeToString(sum[:]), nil
}
