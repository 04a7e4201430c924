package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "crm:ctx:"

// RedisContextCache stores resolved request contexts as JSON in Redis so all
// instances see the same entries and invalidations. Each user has a set
// listing their keys, which Invalidate walks.
//
// Redis failures are logged and treated as cache misses: the cache only
// saves a database round trip.
type RedisContextCache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisClient opens a client and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisContextCache wraps an existing client
func NewRedisContextCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisContextCache {
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisContextCache{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
		logger:    logger.Named("context_cache"),
	}
}

func (c *RedisContextCache) entryKey(key identity.ContextKey) string {
	return c.keyPrefix + key.String()
}

func (c *RedisContextCache) indexKey(userID uuid.UUID) string {
	return c.keyPrefix + "idx:" + userID.String()
}

// Get reads and decodes an entry
func (c *RedisContextCache) Get(ctx context.Context, key identity.ContextKey) (*identity.RequestContext, bool) {
	raw, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("context cache read failed", zap.String("key", key.String()), zap.Error(err))
		}
		return nil, false
	}

	var rc identity.RequestContext
	if err := json.Unmarshal(raw, &rc); err != nil {
		c.logger.Warn("context cache entry corrupt", zap.String("key", key.String()), zap.Error(err))
		_ = c.client.Del(ctx, c.entryKey(key)).Err()
		return nil, false
	}
	return &rc, true
}

// Set writes the entry and adds it to the user's index in one pipeline
func (c *RedisContextCache) Set(ctx context.Context, key identity.ContextKey, rc *identity.RequestContext) {
	if rc == nil {
		return
	}
	payload, err := json.Marshal(rc)
	if err != nil {
		c.logger.Warn("context cache encode failed", zap.Error(err))
		return
	}

	idx := c.indexKey(key.UserID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.entryKey(key), payload, c.ttl)
		pipe.SAdd(ctx, idx, c.entryKey(key))
		pipe.Expire(ctx, idx, c.ttl)
		return nil
	})
	if err != nil {
		c.logger.Warn("context cache write failed", zap.String("key", key.String()), zap.Error(err))
	}
}

// Invalidate deletes every entry listed in the user's index, then the index
func (c *RedisContextCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	idx := c.indexKey(userID)
	keys, err := c.client.SMembers(ctx, idx).Result()
	if err != nil && err != redis.Nil {
		c.logger.Warn("context cache index read failed", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	if err := c.client.Del(ctx, append(keys, idx)...).Err(); err != nil {
		c.logger.Warn("context cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// Backend returns the backend name
func (c *RedisContextCache) Backend() string { return BackendRedis }

// Close closes the underlying client
func (c *RedisContextCache) Close() error {
	return c.client.Close()
}
