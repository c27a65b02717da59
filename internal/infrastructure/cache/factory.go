package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends are the shared-state components that live in Redis when it is configured
type Backends struct {
	Idempotency shared.IdempotencyStore
	Locker      shared.Locker
	Reports     ReportStore
	// Client is nil when running on in-memory fallbacks
	Client *redis.Client
}

// ReportStore is what the report cache needs from a key-value backend
type ReportStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// BackendFactory creates Backends from configuration
type BackendFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	lockRetries           int
}

// BackendFactoryOption is a functional option for configuring the factory
type BackendFactoryOption func(*BackendFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) BackendFactoryOption {
	return func(f *BackendFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory backends when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) BackendFactoryOption {
	return func(f *BackendFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithLockRetries caps how often a Redis lock acquisition is retried
func WithLockRetries(n int) BackendFactoryOption {
	return func(f *BackendFactory) {
		f.lockRetries = n
	}
}

// NewBackendFactory creates a new factory
func NewBackendFactory(cfg config.RedisConfig, opts ...BackendFactoryOption) *BackendFactory {
	f := &BackendFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InMemory returns process-local backends
func (f *BackendFactory) InMemory() *Backends {
	return &Backends{
		Idempotency: NewInMemoryIdempotencyStore(),
		Locker:      NewMemoryLocker(),
		Reports:     NewMemoryReportCache(),
	}
}

// Create connects to Redis when enabled and falls back to in-memory backends otherwise
func (f *BackendFactory) Create() (*Backends, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory idempotency, locks and report cache")
		return f.InMemory(), nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory backends. "+
			"Idempotency and posting locks will not be shared between instances.",
			zap.Error(err))
		return f.InMemory(), nil
	}

	f.logger.Info("Using Redis for idempotency, locks and report cache",
		zap.String("host", f.redisConfig.Host),
		zap.Int("port", f.redisConfig.Port))
	return &Backends{
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Locker:      NewRedisLocker(client, f.logger).WithRetryLimit(f.lockRetries),
		Reports:     NewRedisReportCache(client),
		Client:      client,
	}, nil
}

// Close releases the Redis connection and stops in-memory sweepers
func (b *Backends) Close() error {
	if b.Idempotency != nil {
		_ = b.Idempotency.Close()
	}
	if b.Client != nil {
		return b.Client.Close()
	}
	return nil
}
