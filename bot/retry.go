package bot

import (
	"context"
	"log"
	"time"

	"order-bot/router"
	"order-bot/services"
)

const (
	retryAttempts = 3
	retryBackoff  = 200 * time.Millisecond
)

// retryable picks the retry rule for an intent: reads and idempotent writes
// retry any transient error, other writes only errors that did not commit.
func retryable(intent router.Intent) func(error) bool {
	if router.Idempotent(intent) {
		return services.IsTransient
	}
	return services.SafeToRetry
}

// withRetry runs fn up to retryAttempts times while retry accepts its error.
// The core never retries; the front-ends do.
func withRetry[T any](ctx context.Context, op string, retry func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	var (
		res T
		err error
	)
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		res, err = fn(ctx)
		if err == nil || !retry(err) || attempt == retryAttempts {
			return res, err
		}
		log.Printf("%s: transient error (attempt %d/%d): %v", op, attempt, retryAttempts, err)
		select {
		case <-ctx.Done():
			return res, err
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return res, err
}
