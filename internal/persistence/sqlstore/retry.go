package sqlstore

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/example/exam-scheduler/internal/persistence"
)

// RetryConfig bounds how often a unit of work is replayed after a transaction conflict.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    5,
		InitialDelay:  20 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

type retryHelper struct {
	config RetryConfig
	logger *slog.Logger
}

func newRetryHelper(cfg RetryConfig, logger *slog.Logger) *retryHelper {
	defaults := DefaultRetryConfig()
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaults.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaults.MaxDelay
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = defaults.BackoffFactor
	}
	return &retryHelper{config: cfg, logger: logger}
}

// do runs fn until it succeeds, fails with a non-conflict error, or the retry
// budget is spent. Waits grow exponentially with random jitter.
func (r *retryHelper) do(ctx context.Context, fn func() error) error {
	delay := r.config.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay + jitter):
			}
			delay = time.Duration(float64(delay) * r.config.BackoffFactor)
			if delay > r.config.MaxDelay {
				delay = r.config.MaxDelay
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, persistence.ErrTxConflict) {
			return err
		}
		lastErr = err
		r.logger.WarnContext(ctx, "transaction conflict", "attempt", attempt+1, "error", err)
	}

	return errors.Wrapf(lastErr, "sqlstore: gave up after %d retries", r.config.MaxRetries)
}
