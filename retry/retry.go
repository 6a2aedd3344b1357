package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Unlimited is the MaxAttempts value for a Policy that never gives up
const Unlimited = 0

var ErrExhausted = errors.New("retry attempts exhausted")

// A Policy retries an operation with a fixed delay between attempts. A zero
// MaxAttempts retries forever.
type Policy struct {
	Delay       time.Duration
	MaxAttempts int

	// OnRetry is called after each failed attempt that will be retried
	OnRetry func(attempt int, err error)

	// Timer paces the waits between attempts. Nil uses a real timer.
	Timer backoff.Timer
}

// NewPolicy returns a Policy that waits delay between attempts and gives up
// after maxAttempts, or never if maxAttempts is Unlimited.
func NewPolicy(delay time.Duration, maxAttempts int) *Policy {
	return &Policy{
		Delay:       delay,
		MaxAttempts: maxAttempts,
	}
}

func (p *Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	if p.MaxAttempts != Unlimited {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}

	return backoff.WithContext(b, ctx)
}

// Do invokes fn until it succeeds, the attempts run out, or the context is
// cancelled.
func (p *Policy) Do(ctx context.Context, fn func() error) error {
	attempt := 0
	operation := func() error {
		attempt++
		return fn()
	}

	notify := func(err error, _ time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
	}

	err := backoff.RetryNotifyWithTimer(operation, p.backOff(ctx), notify, p.Timer)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return err
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
}
