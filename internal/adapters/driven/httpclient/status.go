package httpclient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// maxErrorBody bounds how much of a provider error body is echoed.
const maxErrorBody = 512

// CheckStatus maps a non-2xx provider response onto a domain error.
//
//   - 429 becomes a *domain.RateLimitError carrying the Retry-After hint
//   - 400 and 422 become domain.ErrInvalidInput
//   - everything else becomes domain.ErrProviderUnavailable
func CheckStatus(provider string, resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &domain.RateLimitError{Provider: provider, RetryAfter: RetryAfter(resp)}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s (status %d): %s", domain.ErrInvalidInput, provider, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%w: %s (status %d): %s", domain.ErrProviderUnavailable, provider, resp.StatusCode, msg)
	}
}

// Unavailable wraps a transport or decoding failure as ErrProviderUnavailable.
func Unavailable(provider, op string, err error) error {
	return fmt.Errorf("%w: %s: %s: %w", domain.ErrProviderUnavailable, provider, op, err)
}
