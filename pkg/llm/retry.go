package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// TransientError marks a provider failure worth retrying (network error,
// rate limit, upstream overload). Non-transient failures surface immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err so DoWithRetry will retry it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransientStatus reports whether an HTTP status from a provider is
// worth retrying.
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DoWithRetry runs fn up to attempts times, sleeping with exponential
// backoff between tries. Only TransientError failures are retried; the
// context cancels waiting immediately.
func DoWithRetry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := baseDelay
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var transient *TransientError
		var netErr net.Error
		retriable := errors.As(lastErr, &transient) ||
			(errors.As(lastErr, &netErr) && netErr.Timeout())
		if !retriable {
			return lastErr
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}
