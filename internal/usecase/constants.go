package usecase

import (
	"errors"
	"time"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultSalarySplitDelay is how far in the future salary split transfers fire.
	DefaultSalarySplitDelay = time.Minute

	// DefaultGoalProgressTTL bounds how stale a cached goal progress may be.
	DefaultGoalProgressTTL = 5 * time.Minute
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")
