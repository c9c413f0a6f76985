// Package embedding holds input preparation and response alignment shared by
// the embedding provider adapters in its subpackages.
package embedding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// DefaultMaxInputChars bounds each input to stay under typical model limits.
const DefaultMaxInputChars = 8000

// Clean collapses line breaks to single spaces and trims the text.
func Clean(text string) string {
	return strings.TrimSpace(strings.Join(strings.FieldsFunc(text, isLineBreak), " "))
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}

// Truncate cuts text to at most maxChars characters without splitting a rune.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars])
}

// Prepare cleans and truncates every text for submission.
// An empty batch or a text that is empty after cleaning is invalid input.
func Prepare(texts []string, maxChars int) ([]string, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty embedding batch", domain.ErrInvalidInput)
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		cleaned := Truncate(Clean(text), maxChars)
		if cleaned == "" {
			return nil, fmt.Errorf("%w: text %d is empty", domain.ErrInvalidInput, i)
		}
		out[i] = cleaned
	}
	return out, nil
}

// Item is one vector of a provider response with its reported input index.
type Item struct {
	Index  int
	Vector []float64
}

// Align places items by their reported index so output i matches input i.
// The response must contain exactly one non-empty vector per input.
func Align(provider string, n int, items []Item) ([][]float32, error) {
	if len(items) != n {
		return nil, fmt.Errorf("%w: %s returned %d embeddings for %d inputs",
			domain.ErrProviderUnavailable, provider, len(items), n)
	}

	out := make([][]float32, n)
	for _, item := range items {
		if item.Index < 0 || item.Index >= n {
			return nil, fmt.Errorf("%w: %s returned out-of-range index %d",
				domain.ErrProviderUnavailable, provider, item.Index)
		}
		if out[item.Index] != nil {
			return nil, fmt.Errorf("%w: %s returned duplicate index %d",
				domain.ErrProviderUnavailable, provider, item.Index)
		}
		if len(item.Vector) == 0 {
			return nil, fmt.Errorf("%w: %s returned empty embedding at index %d",
				domain.ErrProviderUnavailable, provider, item.Index)
		}
		out[item.Index] = ToFloat32(item.Vector)
	}
	return out, nil
}

// ToFloat32 narrows a provider vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
