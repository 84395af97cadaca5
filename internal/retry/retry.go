// Package retry applies an explicit retry policy to remote operations.
// The policy is a plain value so timeout/retry behavior stays part of the
// visible contract of whatever uses it.
package retry

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy describes how a remote operation is retried.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// MaxJitter is added uniformly at random on top of the backoff delay.
	MaxJitter time.Duration
}

// DefaultPolicy is a conservative policy for embedding and store calls.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxJitter: 100 * time.Millisecond}
}

// Do invokes fn up to p.MaxAttempts times with exponential backoff between
// attempts. Context cancellation stops retrying immediately and returns the
// context error. The last attempt's error is returned when all attempts fail.
func Do(ctx context.Context, p Policy, logger *zap.Logger, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = fn(ctx); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		delay := p.BaseDelay << (attempt - 1)
		if p.MaxJitter > 0 {
			delay += time.Duration(rand.Int63n(int64(p.MaxJitter)))
		}

		logger.Warn("retrying remote operation",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return err
}
