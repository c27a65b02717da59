package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockTimeout is returned when a lock could not be obtained before the context ended
var ErrLockTimeout = shared.NewDomainError("LOCK_TIMEOUT", "Another posting for these companies is in progress, please retry")

const lockRetryInterval = 50 * time.Millisecond

// RedisLocker serializes work across instances with Redis locks
type RedisLocker struct {
	client    *redislock.Client
	keyPrefix string
	retries   int
	logger    *zap.Logger
}

// NewRedisLocker creates a locker on an existing Redis client
func NewRedisLocker(client *redis.Client, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client:    redislock.New(client),
		keyPrefix: "acct:lock:",
		logger:    logger,
	}
}

// WithRetryLimit caps the attempts of Acquire; zero retries until ctx is done
func (l *RedisLocker) WithRetryLimit(retries int) *RedisLocker {
	l.retries = retries
	return l
}

// Acquire retries until the lock is obtained, the retry limit is hit or ctx is done
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	strategy := redislock.LinearBackoff(lockRetryInterval)
	if l.retries > 0 {
		strategy = redislock.LimitRetry(strategy, l.retries)
	}
	lock, err := l.client.Obtain(ctx, l.keyPrefix+key, ttl, &redislock.Options{
		RetryStrategy: strategy,
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, ErrLockTimeout
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock: %w", err)
	}
	return func() {
		// The posting context may already be cancelled
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// MemoryLocker serializes work within one process
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewMemoryLocker creates an in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]chan struct{})}
}

// Acquire waits for the key to be free. ttl is ignored; the lock lives until released.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if !busy {
			done := make(chan struct{})
			l.locks[key] = done
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.locks, key)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, ErrLockTimeout
		}
	}
}

var (
	_ shared.Locker = (*RedisLocker)(nil)
	_ shared.Locker = (*MemoryLocker)(nil)
)
