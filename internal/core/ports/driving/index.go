package driving

import (
	"context"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// IndexService embeds chunks and answers similarity queries over them.
type IndexService interface {
	// Insert embeds every chunk in one batch and stores the document with
	// its chunks atomically. Nothing is written if embedding fails.
	Insert(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// Search embeds the query and returns up to topK results, best first.
	// topK <= 0 uses domain.DefaultTopK.
	Search(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error)

	// SearchVector is Search with a precomputed query vector.
	SearchVector(ctx context.Context, vector []float32, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error)

	// Delete removes a document and its chunks. Unknown IDs are a no-op.
	Delete(ctx context.Context, documentID string) error

	// Get returns a document and its chunks, or domain.ErrNotFound.
	Get(ctx context.Context, documentID string) (*domain.Document, []domain.Chunk, error)

	// List returns all documents in insertion order.
	List(ctx context.Context) ([]domain.Document, error)

	// Stats returns document and chunk counts.
	Stats(ctx context.Context) (domain.IndexStats, error)
}
