package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryPolicy bounds connection establishment: the first attempt gets
// FirstTimeout, later ones RetryTimeout, and at most MaxRetries retries follow.
// Errors other than a timeout wait Backoff before retrying.
type RetryPolicy struct {
	FirstTimeout time.Duration
	RetryTimeout time.Duration
	MaxRetries   int
	Backoff      time.Duration
}

// DefaultRetryPolicy is 6s, then 10s twice, with 1s between failed attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		FirstTimeout: 6 * time.Second,
		RetryTimeout: 10 * time.Second,
		MaxRetries:   2,
		Backoff:      time.Second,
	}
}

func (rp RetryPolicy) timeout(attempt int) time.Duration {
	if attempt == 0 {
		return rp.FirstTimeout
	}
	return rp.RetryTimeout
}

// Establish runs fn until it succeeds or the policy is exhausted. Errors that
// are not worth retrying (room not found, address taken) return at once.
func Establish[T any](ctx context.Context, rp RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= rp.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, rp.timeout(attempt))
		v, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrAddressTaken) {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%w: %v", ErrConnectFailed, ctx.Err())
		}
		if attempt == rp.MaxRetries {
			break
		}
		if !errors.Is(err, context.DeadlineExceeded) && rp.Backoff > 0 {
			select {
			case <-time.After(rp.Backoff):
			case <-ctx.Done():
				return zero, fmt.Errorf("%w: %v", ErrConnectFailed, ctx.Err())
			}
		}
	}
	return zero, fmt.Errorf("%w after %d attempts: %v", ErrConnectFailed, rp.MaxRetries+1, lastErr)
}
