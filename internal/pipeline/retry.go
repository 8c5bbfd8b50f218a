package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/sbaggregate/internal/pathstore"
)

// IsRetryable checks if a pathstore error is worth retrying.
func IsRetryable(err error) bool {
	var statusErr *pathstore.StatusError
	return errors.As(err, &statusErr) && statusErr.Temporary()
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// retryPut wraps put so temporary failures are retried with backoff.
func retryPut(put pathstore.Put, wait func(int) time.Duration) pathstore.Put {
	return func(ctx context.Context, key string, req pathstore.NodeRequest) error {
		var lastErr error
		for attempt := range MaxRetries {
			lastErr = put(ctx, key, req)
			if lastErr == nil || !IsRetryable(lastErr) {
				return lastErr
			}
			select {
			case <-time.After(wait(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return lastErr
	}
}
