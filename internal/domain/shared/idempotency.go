package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client supplied request keys so a retried
// submission is not applied twice.
type IdempotencyStore interface {
	// Reserve claims a key for ttl.
	// Returns true if the key was newly claimed, false if it was already taken
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees a key so the request can be retried after a failure
	Release(ctx context.Context, key string) error

	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a request key stays reserved. Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency keys are honoured. Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
