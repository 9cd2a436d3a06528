// Package cache keeps computed loan scores in Redis. Scores never change once
// stored, so entries are only ever written and expired, never invalidated.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lendline/lendline-stack/common/models"
)

// ErrMiss is returned by Get when the score is not cached.
var ErrMiss = errors.New("score not cached")

const keyPrefix = "lendline:score:"

// ScoreCache is a Redis-backed score cache.
type ScoreCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration) *ScoreCache {
	return &ScoreCache{redis: client, ttl: ttl}
}

// Connect parses redisURL, connects and verifies the connection.
func Connect(ctx context.Context, redisURL string, poolSize int, ttl time.Duration) (*ScoreCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if poolSize > 0 {
		opt.PoolSize = poolSize
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return New(client, ttl), nil
}

// Key returns the cache key of an application's score.
func Key(applicationID int64) string {
	return keyPrefix + strconv.FormatInt(applicationID, 10)
}

// Get returns the cached score or ErrMiss.
func (c *ScoreCache) Get(ctx context.Context, applicationID int64) (*models.LoanScore, error) {
	data, err := c.redis.Get(ctx, Key(applicationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached score: %w", err)
	}

	var score models.LoanScore
	if err := json.Unmarshal(data, &score); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached score: %w", err)
	}
	return &score, nil
}

// Set stores score for the configured TTL. A zero TTL keeps it until evicted.
func (c *ScoreCache) Set(ctx context.Context, score *models.LoanScore) error {
	data, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}
	if err := c.redis.Set(ctx, Key(score.ApplicationID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache score: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *ScoreCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the client.
func (c *ScoreCache) Close() error {
	return c.redis.Close()
}
