package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which client requests have been processed and what they produced
type IdempotencyStore interface {
	// Reserve claims the key. It returns false when the key is already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Result returns the stored result for a completed key. ok is false while pending or unknown.
	Result(ctx context.Context, key string) (result string, ok bool, err error)

	// Complete stores the result for a reserved key
	Complete(ctx context.Context, key, result string, ttl time.Duration) error

	// Release drops a reservation so the request can be retried
	Release(ctx context.Context, key string) error

	Close() error
}

// Locker serializes work on a key across processes
type Locker interface {
	// Acquire blocks until the lock is obtained or ctx ends. The returned func releases it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// IdempotencyPending is the value held by a reserved key that has not completed
const IdempotencyPending = "__pending__"
