package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Policy holds retry configuration.
// It is passed by value to every job runner.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// Backoff is the delay before the first retry.
	Backoff time.Duration
	// MaxBackoff caps exponential growth of the delay.
	// When it is not greater than Backoff the delay is fixed.
	MaxBackoff time.Duration
	// Clock is used to wait between attempts. Nil means the real clock.
	Clock clockwork.Clock
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy returns one retry after a fixed five minute delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 2,
		Backoff:     5 * time.Minute,
	}
}

// NoRetry returns a policy that calls the function exactly once.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1}
}

func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.Backoff < 0 || p.MaxBackoff < 0 {
		return errors.New("retry backoff must not be negative")
	}
	return nil
}

func (p Policy) String() string {
	return fmt.Sprintf("attempts=%d backoff=%v maxBackoff=%v", p.MaxAttempts, p.Backoff, p.MaxBackoff)
}

// WithOnRetry returns a copy of p that calls fn before each wait.
func (p Policy) WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Policy {
	p.OnRetry = fn
	return p
}

// Delay returns the wait before attempt number attempt+1.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := p.Backoff
	if p.MaxBackoff <= p.Backoff {
		return d
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return d
}

// Do calls fn until it succeeds, returns a permanent error or attempts run out.
// The attempt number passed to fn starts at 1.
// Returns the last error if all attempts fail.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	if err := p.Validate(); err != nil {
		return err
	}
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := p.Delay(attempt - 1)
			if p.OnRetry != nil {
				p.OnRetry(attempt-1, lastErr, delay)
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry abandoned after %d attempts: %w", attempt-1, ctx.Err())
			case <-clock.After(delay):
			}
		}
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return unwrapPermanent(lastErr)
		}
	}
	if p.MaxAttempts == 1 {
		return lastErr
	}
	return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr)
}

// Do executes fn with the retry policy p.
func Do(ctx context.Context, p Policy, fn func() error) error {
	return p.Do(ctx, func(context.Context, int) error {
		return fn()
	})
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent marks err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err}
}

func unwrapPermanent(err error) error {
	var p *permanentError
	if errors.As(err, &p) {
		return p.err
	}
	return err
}

// IsRetryable reports whether err should be retried.
// Every error is retryable except context cancellation and errors marked Permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var p *permanentError
	return !errors.As(err, &p)
}
