package httpclient

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"

	// HeaderResetRequests is the OpenAI-style reset hint for request quotas.
	HeaderResetRequests = "X-RateLimit-Reset-Requests"
)

// Limiter paces outbound provider calls with a token bucket.
// A nil *Limiter never blocks.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter creates a limiter allowing requestsPerSecond with a burst of one.
// Returns nil when requestsPerSecond is not positive.
func NewLimiter(requestsPerSecond float64) *Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Wait blocks until the next call may be made or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	return l.bucket.Wait(ctx)
}

// RetryAfter extracts the provider's retry hint from a response.
// Returns zero if no usable hint is present.
func RetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	if v := resp.Header.Get(HeaderRetryAfter); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			if d := time.Until(at); d > 0 {
				return d
			}
		}
	}

	if v := resp.Header.Get(HeaderResetRequests); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}

	return 0
}
