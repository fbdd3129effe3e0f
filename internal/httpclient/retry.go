package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/prompttask/errors"
)

// StatusError is a non-2xx response from an upstream API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether err is worth another attempt: rate limiting,
// upstream 5xx, and network-level failures. Context cancellation never is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection reset by peer",
		"connection refused",
		"temporary failure",
		"network is unreachable",
		"i/o timeout",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// Retry calls fn until it succeeds, returns a non-retryable error, or
// maxRetries additional attempts are spent. The delay doubles from backoff
// between attempts.
func Retry(ctx context.Context, maxRetries int, backoff time.Duration, log *zap.SugaredLogger, fn func(ctx context.Context) error) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff << (attempt - 1)
			log.Debugw("Retrying request", "attempt", attempt, "max_retries", maxRetries, "delay", delay)
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "retry aborted")
			case <-time.After(delay):
			}
		}

		err = fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Infow("Request succeeded after retries", "attempts", attempt+1)
			}
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		log.Warnw("Retryable request error", "attempt", attempt+1, "error", err)
	}
	return errors.Wrapf(err, "giving up after %d retries", maxRetries)
}
