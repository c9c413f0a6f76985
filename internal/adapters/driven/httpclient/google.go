package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// FromGoogleAPI maps an error returned by a Google client library onto a
// domain error. HTTP codes carried by *googleapi.Error follow the same rules
// as CheckStatus. Errors without a code are treated as unavailability.
func FromGoogleAPI(provider, op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return &domain.RateLimitError{Provider: provider}
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s: %s: %s", domain.ErrInvalidInput, provider, op, gerr.Message)
		}
		return fmt.Errorf("%w: %s: %s (status %d): %s",
			domain.ErrProviderUnavailable, provider, op, gerr.Code, gerr.Message)
	}

	// gRPC transports report quota exhaustion only in the message.
	if strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		return &domain.RateLimitError{Provider: provider}
	}
	return Unavailable(provider, op, err)
}
