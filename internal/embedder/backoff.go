package embedder

import (
	"context"
	"time"
)

// Wait bounds for the retry schedule. The pause doubles per attempt from
// retryBaseWait and never exceeds retryMaxWait.
const (
	retryBaseWait = 100 * time.Millisecond
	retryMaxWait  = 5 * time.Second
)

// retry runs fn up to attempts times, sleeping between tries. Context
// cancellation cuts the loop short at any point, including mid-wait, and
// wins over the last error.
func retry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	wait := retryBaseWait
	for attempt := 1; ; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt >= attempts {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > retryMaxWait {
			wait = retryMaxWait
		}
	}
}
