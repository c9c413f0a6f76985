package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Parser Errors.

	// ErrUnsupportedFormat indicates a file type outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptFile indicates the format was recognised but extraction failed.
	ErrCorruptFile = errors.New("corrupt file")

	// Provider Errors.

	// ErrProviderUnavailable indicates an embedding, chat or search provider
	// call failed for a reason other than rate limiting.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimited indicates the provider rejected the call with a rate limit.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector store is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrSearchUnavailable indicates no online searcher is configured.
	ErrSearchUnavailable = errors.New("online search unavailable")

	// ErrTranscriptionUnavailable indicates no transcriber is configured.
	ErrTranscriptionUnavailable = errors.New("transcription unavailable")

	// Research Errors.

	// ErrInvalidTransition indicates a research status change that the
	// state machine does not allow.
	ErrInvalidTransition = errors.New("invalid research status transition")

	// ErrAllSearchesFailed indicates every sub-question search failed.
	ErrAllSearchesFailed = errors.New("all sub-question searches failed")
)

// RateLimitError carries the provider's retry hint alongside ErrRateLimited.
type RateLimitError struct {
	// Provider names the service that rejected the call.
	Provider string

	// RetryAfter is the wait suggested by the provider, zero if unknown.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: %s (retry after %v)", ErrRateLimited, e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: %s", ErrRateLimited, e.Provider)
}

// Unwrap allows errors.Is(err, ErrRateLimited).
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
