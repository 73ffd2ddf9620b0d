package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

type rateLimitError struct{}

func (e *rateLimitError) Error() string { return "rate limited" }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.statusCode, e.body)
}

// decodeError marks a locally-raised failure while decoding a transport
// response body, distinct from the transport failing outright.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// retryWithBackoff retries fn on rate-limit and server errors with
// exponential backoff. Auth errors and everything else return immediately.
func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if IsAuthError(lastErr) {
			return lastErr
		}

		var rle *rateLimitError
		var se *serverError
		if !errors.As(lastErr, &rle) && !errors.As(lastErr, &se) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}

// errMessage maps a transport error into the outcome error contract.
func errMessage(err error) string {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "Request timed out"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}
	var de *decodeError
	if errors.As(err, &de) {
		return "Unexpected error: " + de.err.Error()
	}
	return "Request failed: " + err.Error()
}
