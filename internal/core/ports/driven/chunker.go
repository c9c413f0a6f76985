package driven

import "github.com/custodia-labs/deepsearch/internal/core/domain"

// Chunker splits document text into overlapping, boundary-aware chunks.
type Chunker interface {
	// Split normalises text and returns chunks in increasing StartIndex order.
	// Chunk IDs are derived from documentID and position.
	Split(text, documentID string) []domain.Chunk

	// Normalise applies the chunker's text normalisation. Chunk offsets
	// index into the normalised text.
	Normalise(text string) string
}
