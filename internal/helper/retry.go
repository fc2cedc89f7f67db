package helper

import (
	"context"
	"time"
)

const maxBackoff = 5 * time.Second

// Retry calls fn up to attempts+1 times with exponential backoff starting at base.
// It stops early when fn succeeds or ctx is done, and returns the last error.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 0 {
		attempts = 0
	}

	var err error
	for attempt := 0; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(retryDelay(base, attempt)):
		}
	}
	return err
}

func retryDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base << attempt
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d
}
