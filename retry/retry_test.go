package retry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestRetry_DefaultPolicy(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()
	require.Equal(t, 2, p.MaxAttempts)
	require.Equal(t, 5*time.Minute, p.Backoff)
	require.Equal(t, 5*time.Minute, p.Delay(1))
	require.NoError(t, p.Validate())
}

func TestRetry_Do_SuccessOnFirstAttempt(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := DefaultPolicy().Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, attempts)
}

func TestRetry_Do_RetriesAfterFixedDelay(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClock()
	var retried int32
	p := DefaultPolicy()
	p.Clock = fc
	p.OnRetry = func(attempt int, err error, delay time.Duration) {
		atomic.AddInt32(&retried, 1)
		require.Equal(t, 1, attempt)
		require.Equal(t, 5*time.Minute, delay)
	}
	var attempts int32
	done := make(chan error, 1)
	go func() {
		done <- p.Do(context.Background(), func(ctx context.Context, attempt int) error {
			if atomic.AddInt32(&attempts, 1) == 1 {
				return errors.New("connection reset")
			}
			return nil
		})
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	// Nothing happens before the delay elapses.
	fc.Advance(4 * time.Minute)
	select {
	case <-done:
		t.Fatal("retry ran before the backoff elapsed")
	case <-time.After(20 * time.Millisecond):
	}
	fc.Advance(time.Minute)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("timed out waiting for retry")
	}
	require.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	require.Equal(t, int32(1), atomic.LoadInt32(&retried))
}

func TestRetry_Do_ExhaustsAllAttempts(t *testing.T) {
	t.Parallel()
	p := Policy{MaxAttempts: 3, Backoff: time.Millisecond}
	attempts := 0
	errBoom := errors.New("boom")
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		require.Equal(t, attempts, attempt)
		return errBoom
	})
	require.Error(t, err)
	require.ErrorIs(t, err, errBoom)
	require.Contains(t, err.Error(), "failed after 3 attempts")
	require.Equal(t, 3, attempts)
}

func TestRetry_Do_PermanentErrorStops(t *testing.T) {
	t.Parallel()
	p := Policy{MaxAttempts: 5, Backoff: time.Millisecond}
	attempts := 0
	errBad := errors.New("bad projection")
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		return Permanent(fmt.Errorf("validate: %w", errBad))
	})
	require.ErrorIs(t, err, errBad)
	require.Equal(t, 1, attempts)
	require.False(t, IsRetryable(Permanent(errBad)))
	require.Nil(t, Permanent(nil))
}

func TestRetry_Do_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()
	fc := clockwork.NewFakeClock()
	p := Policy{MaxAttempts: 2, Backoff: time.Hour, Clock: fc}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(ctx context.Context, attempt int) error {
			return errors.New("timeout talking to warehouse")
		})
	}()
	wait, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, fc.BlockUntilContext(wait, 1))
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-wait.Done():
		t.Fatal("timed out waiting for cancellation")
	}
}

func TestRetry_Do_ContextErrorNotRetried(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3}, func() error {
		attempts++
		return fmt.Errorf("query: %w", context.DeadlineExceeded)
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, attempts)
}

func TestRetry_Delay(t *testing.T) {
	t.Parallel()
	p := Policy{MaxAttempts: 5, Backoff: time.Second, MaxBackoff: 5 * time.Second}
	require.Equal(t, time.Duration(0), p.Delay(0))
	require.Equal(t, time.Second, p.Delay(1))
	require.Equal(t, 2*time.Second, p.Delay(2))
	require.Equal(t, 4*time.Second, p.Delay(3))
	require.Equal(t, 5*time.Second, p.Delay(4))
}

func TestRetry_Validate(t *testing.T) {
	t.Parallel()
	require.Error(t, Policy{}.Validate())
	require.Error(t, Policy{MaxAttempts: 1, Backoff: -time.Second}.Validate())
	require.NoError(t, NoRetry().Validate())
	err := Policy{}.Do(context.Background(), func(context.Context, int) error { return nil })
	require.Error(t, err)
}
