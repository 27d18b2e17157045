package cache

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory picks the idempotency backend from configuration
type IdempotencyStoreFactory struct {
	redisConfig config.RedisConfig
	logger      *zap.Logger
	connect     func(ctx context.Context, cfg config.RedisConfig) (shared.IdempotencyStore, error)
}

// IdempotencyStoreFactoryOption configures the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig: cfg,
		logger:      zap.NewNop(),
		connect:     connectRedisStore,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func connectRedisStore(ctx context.Context, cfg config.RedisConfig) (shared.IdempotencyStore, error) {
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisIdempotencyStore(client, DefaultKeyPrefix), nil
}

// CreateStore returns a Redis store when [redis] is enabled and reachable,
// otherwise an in-memory store
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) shared.IdempotencyStore {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}

	store, err := f.connect(ctx, f.redisConfig)
	if err != nil {
		f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err))
		return NewInMemoryIdempotencyStore()
	}

	f.logger.Info("Using Redis idempotency store", zap.String("addr", f.redisConfig.Addr()))
	return store
}
