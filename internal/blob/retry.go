package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loadctl/internal/logging"
)

// RetryConfig configures WithRetry.
//
// Zero values are given defaults:
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// disables retrying.
	MaxRetries int
	// InitialBackoff is the wait before the first retry; each later retry
	// doubles it up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// retryStore retries List and Get on transient failures. ErrNotFound and
// context errors are final.
type retryStore struct {
	Store
	cfg    RetryConfig
	logger *zap.Logger

	// wait is injectable to make tests fast and deterministic.
	wait func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps s so that List and Get are retried with exponential
// backoff. A non-positive MaxRetries returns s unchanged.
func WithRetry(s Store, cfg RetryConfig, logger *zap.Logger) Store {
	if cfg.MaxRetries <= 0 {
		return s
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &retryStore{Store: s, cfg: cfg, logger: logging.OrNop(logger), wait: sleepWithContext}
}

func (r *retryStore) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	err := r.do(ctx, "list", prefix, func() error {
		var err error
		out, err = r.Store.List(ctx, prefix)
		return err
	})
	return out, err
}

func (r *retryStore) Get(ctx context.Context, name string) ([]byte, error) {
	var out []byte
	err := r.do(ctx, "get", name, func() error {
		var err error
		out, err = r.Store.Get(ctx, name)
		return err
	})
	return out, err
}

func (r *retryStore) do(ctx context.Context, op, name string, fn func() error) error {
	attempts := r.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
		if attempt+1 >= attempts {
			break
		}
		backoff := backoffDuration(r.cfg.InitialBackoff, attempt, r.cfg.MaxBackoff)
		r.logger.Warn("blob: retrying",
			zap.String("op", op),
			zap.String("object", name),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.String("error", logging.SanitizeError(lastErr)),
		)
		if err := r.wait(ctx, backoff); err != nil {
			return err
		}
	}
	return fmt.Errorf("blob: %s %s: giving up after %d attempts: %w", op, name, attempts, lastErr)
}

func retryable(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// backoffDuration returns initial * 2^attempt clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		return min(initial, max)
	}
	d := initial << attempt
	if d <= 0 || d > max {
		return max
	}
	return d
}

// sleepWithContext waits for d, returning early if ctx is canceled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
