package services

import (
	"context"
	"fmt"
	"time"
)

const (
	retryAttempts = 3
	retryDelay    = 100 * time.Millisecond
)

// withRetry runs fn up to retryAttempts times with a short backoff, mapping
// an exhausted failure to ErrUnavailable. Used at the accounting boundary so
// transient infrastructure failures never corrupt room state.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(retryDelay * time.Duration(attempt+1)):
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
