package driven

import (
	"context"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// VectorStore persists documents with their embedded chunks and answers
// similarity queries over them.
//
// Implementations must make each Put visible all-or-nothing: concurrent
// readers see either the previous chunk set of a document or the new one,
// never a mix.
type VectorStore interface {
	// Put stores the document and replaces its chunk set atomically.
	// Every chunk must carry its embedding.
	Put(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// Query scores every chunk passing the filter by cosine similarity and
	// returns up to topK results, best first. Equal scores keep insertion order.
	// An empty store returns an empty slice and no error.
	Query(ctx context.Context, vector []float32, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error)

	// Delete removes a document and all its chunks. Deleting an unknown ID is a no-op.
	Delete(ctx context.Context, documentID string) error

	// Get returns a document and its chunks in position order.
	// Returns domain.ErrNotFound if the document does not exist.
	Get(ctx context.Context, documentID string) (*domain.Document, []domain.Chunk, error)

	// List returns all documents in insertion order.
	List(ctx context.Context) ([]domain.Document, error)

	// Stats returns document and chunk counts.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources.
	Close() error
}
