// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"time"
)

// backoffBase is the delay before the second attempt of a call. Each later
// attempt doubles it (2s, 4s, 8s, ...). Tests shrink it.
var backoffBase = 2 * time.Second

// backoff returns the delay to wait before the given 0-based attempt.
func backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return backoffBase << (attempt - 1)
}

// withRetry calls fn up to attempts times, waiting with exponential
// backoff between calls. It stops early when fn succeeds or returns an
// error that permanent accepts, and returns the last error otherwise.
func withRetry(ctx context.Context, attempts int, permanent func(error) bool, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := range attempts {
		if d := backoff(attempt); d > 0 {
			if werr := sleep(ctx, d); werr != nil {
				return fmt.Errorf("%w (last error: %w)", werr, err)
			}
		}
		err = fn(attempt)
		if err == nil || permanent(err) {
			return err
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
