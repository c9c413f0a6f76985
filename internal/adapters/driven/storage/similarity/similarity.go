// Package similarity provides the scoring shared by the vector store backends.
package similarity

import (
	"math"
	"sort"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// Cosine returns dot(a, b) / (|a| |b|) clamped to [-1, 1].
// It is exactly 0 when the lengths differ or either norm is 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case score > 1:
		return 1
	case score < -1:
		return -1
	default:
		return score
	}
}

// TopK sorts results by descending score and keeps at most k of them.
// Results must arrive in insertion order: ties keep that order.
func TopK(results []domain.SearchResult, k int) []domain.SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
