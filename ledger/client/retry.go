package client

import (
	"context"
	"time"

	"verichain/internal/errs"
)

// withRetry runs op up to attempts times, backing off between tries. Only
// transient errors are retried; ledger rejections and other application-level
// failures are terminal and returned immediately.
func withRetry(ctx context.Context, attempts int, interval time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil || !errs.IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval * time.Duration(i+1)):
		}
	}
	return err
}
