package identity

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy is an exponential backoff: the n-th retry waits
// BaseDelay*2^(n-1), capped at MaxDelay.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func DefaultRetryPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, BaseDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}
}

func (p RetryPolicy) delay(retry int) time.Duration {
	d := p.BaseDelay << (retry - 1)
	if d <= 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		return p.MaxDelay
	}
	return d
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient so Retry tries again.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

// Retry calls fn until it succeeds, fails with an error not marked
// Retryable, the attempts run out or ctx is done. The last error is
// returned unwrapped from its retryable marker.
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			t := time.NewTimer(p.delay(i))
			select {
			case <-ctx.Done():
				t.Stop()
				return errors.Join(ctx.Err(), err)
			case <-t.C:
			}
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		var r *retryableError
		if !errors.As(err, &r) {
			return err
		}
		err = r.err
	}
	return err
}
