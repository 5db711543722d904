// Package cache holds per-user task snapshots in Redis so repeated list
// requests between mutations skip the database. The cache is strictly an
// optimization: every failure path degrades to a miss.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tasks:snapshot:"

// RedisCache implements the snapshot cache over go-redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// New connects a RedisCache to addr. The client connects lazily; a dead
// Redis shows up as misses, not startup failure.
func New(addr string, ttl time.Duration, logger logging.Logger) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		logger: logger,
	}
}

// NewWithClient wires an existing client, used by tests with miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration, logger logging.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached snapshot for userID, or ok=false on miss or error.
func (c *RedisCache) Get(ctx context.Context, userID string) ([]models.Task, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+userID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn(ctx, "snapshot cache read failed", "error", err)
		}
		return nil, false
	}
	var tasks []models.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		c.logger.Warn(ctx, "snapshot cache entry corrupt, dropping", "error", err)
		c.Invalidate(ctx, userID)
		return nil, false
	}
	return tasks, true
}

// Set stores the snapshot under the configured TTL.
func (c *RedisCache) Set(ctx context.Context, userID string, tasks []models.Task) {
	raw, err := json.Marshal(tasks)
	if err != nil {
		c.logger.Warn(ctx, "snapshot cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, keyPrefix+userID, raw, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "snapshot cache write failed", "error", err)
	}
}

// Invalidate drops the user's snapshot after a mutation.
func (c *RedisCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		c.logger.Warn(ctx, "snapshot cache invalidation failed", "error", err)
	}
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
