package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DefaultContextTTL is how long a resolved request context is reused
const DefaultContextTTL = 5 * time.Minute

// Backend names
const (
	BackendAuto   = "auto"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ContextCache is what the factory hands out. It satisfies the application
// layer's cache port and adds lifecycle methods for the server.
type ContextCache interface {
	Get(ctx context.Context, key identity.ContextKey) (*identity.RequestContext, bool)
	Set(ctx context.Context, key identity.ContextKey, rc *identity.RequestContext)
	Invalidate(ctx context.Context, userID uuid.UUID)
	Backend() string
	Close() error
}

// ContextCacheFactory creates the context cache selected by configuration
type ContextCacheFactory struct {
	cacheConfig config.CacheConfig
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// ContextCacheFactoryOption is a functional option for configuring the factory
type ContextCacheFactoryOption func(*ContextCacheFactory)

// WithLogger sets the logger for the factory and the caches it creates
func WithLogger(logger *zap.Logger) ContextCacheFactoryOption {
	return func(f *ContextCacheFactory) {
		f.logger = logger
	}
}

// NewContextCacheFactory creates a new factory
func NewContextCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...ContextCacheFactoryOption) *ContextCacheFactory {
	f := &ContextCacheFactory{
		cacheConfig: cacheCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the cache.
//
//   - memory: always the in-process cache
//   - redis: Redis or an error
//   - auto (default): Redis when reachable, otherwise in-process with a warning
func (f *ContextCacheFactory) Create(ctx context.Context) (ContextCache, error) {
	backend := f.cacheConfig.Backend
	if backend == "" {
		backend = BackendAuto
	}

	switch backend {
	case BackendMemory:
		f.logger.Info("using in-memory context cache", zap.Duration("ttl", f.ttl()))
		return f.memory(), nil
	case BackendRedis, BackendAuto:
		client, err := NewRedisClient(ctx, f.redisConfig)
		if err == nil {
			f.logger.Info("using Redis context cache", zap.Duration("ttl", f.ttl()))
			return NewRedisContextCache(client, f.ttl(), f.logger), nil
		}
		if backend == BackendRedis {
			return nil, fmt.Errorf("redis context cache required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory context cache. "+
			"Organization switches will not invalidate entries on other instances.",
			zap.Error(err),
		)
		return f.memory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

func (f *ContextCacheFactory) ttl() time.Duration {
	if f.cacheConfig.TTL > 0 {
		return f.cacheConfig.TTL
	}
	return DefaultContextTTL
}

func (f *ContextCacheFactory) memory() *MemoryContextCache {
	return NewMemoryContextCache(f.cacheConfig.Capacity, f.ttl())
}
