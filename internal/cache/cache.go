// Package cache stores computed leaderboards so repeated reads skip the
// aggregation over all bets.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/kickwager/kickwager-api/internal/models"
)

const (
	keyPrefix     = "kickwager:leaderboard:"
	indexKey      = keyPrefix + "keys"
	generationKey = keyPrefix + "generation"
)

// LeaderboardCache caches leaderboard snapshots by scope. Every
// invalidation bumps a generation counter; a snapshot computed under an
// older generation is never stored.
type LeaderboardCache interface {
	// Get returns the cached entries and whether they were present
	Get(ctx context.Context, key string) ([]models.LeaderboardEntry, bool, error)
	// Generation returns the current invalidation counter
	Generation(ctx context.Context) (int64, error)
	// Set stores entries computed while generation was current. It reports
	// false without writing when an invalidation happened since.
	Set(ctx context.Context, key string, entries []models.LeaderboardEntry, generation int64) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
	// InvalidateAll drops every cached leaderboard
	InvalidateAll(ctx context.Context) error
}

// GlobalKey is the cache key of the global leaderboard
func GlobalKey() string {
	return keyPrefix + "global"
}

// GroupKey is the cache key of a group leaderboard
func GroupKey(groupID uuid.UUID) string {
	return keyPrefix + "group:" + groupID.String()
}

// RedisCache implements LeaderboardCache on Redis
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisCache creates a cache backed by an existing client
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: client, ttl: ttl}
}

// Connect parses a redis:// URL and verifies the server is reachable
func Connect(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisCache(client, ttl), nil
}

// Get returns cached entries
func (c *RedisCache) Get(ctx context.Context, key string) ([]models.LeaderboardEntry, bool, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached leaderboard: %w", err)
	}
	return entries, true, nil
}

// Generation returns the invalidation counter; zero before the first
// invalidation
func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.redis.Get(ctx, generationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Set stores entries under key with the configured TTL. The write runs in a
// WATCH transaction on the generation key, so an invalidation racing with it
// makes it a no-op.
func (c *RedisCache) Set(ctx context.Context, key string, entries []models.LeaderboardEntry, generation int64) (bool, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return false, fmt.Errorf("failed to encode leaderboard: %w", err)
	}

	stored := false
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != generation {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			pipe.SAdd(ctx, indexKey, key)
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, generationKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to write leaderboard cache: %w", err)
	}
	return stored, nil
}

// Invalidate removes the given keys
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	members := make([]interface{}, len(keys))
	for i, k := range keys {
		members[i] = k
	}

	pipe := c.redis.TxPipeline()
	pipe.Incr(ctx, generationKey)
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, indexKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

// InvalidateAll removes every key recorded in the index
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	keys, err := c.redis.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list cached leaderboards: %w", err)
	}

	keys = append(keys, indexKey)
	pipe := c.redis.TxPipeline()
	pipe.Incr(ctx, generationKey)
	pipe.Del(ctx, keys...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool
func (c *RedisCache) Close() error {
	return c.redis.Close()
}

// Noop is used when no Redis URL is configured
type Noop struct{}

func (Noop) Get(context.Context, string) ([]models.LeaderboardEntry, bool, error) {
	return nil, false, nil
}
func (Noop) Generation(context.Context) (int64, error) { return 0, nil }
func (Noop) Set(context.Context, string, []models.LeaderboardEntry, int64) (bool, error) {
	return false, nil
}
func (Noop) Invalidate(context.Context, ...string) error { return nil }
func (Noop) InvalidateAll(context.Context) error         { return nil }
