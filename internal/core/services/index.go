package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure VectorIndex implements the interface.
var _ driving.IndexService = (*VectorIndex)(nil)

// VectorIndex embeds chunks and stores them in a vector store.
type VectorIndex struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
}

// NewVectorIndex creates a vector index. The embedder may be nil, in which
// case only SearchVector and the read operations work.
func NewVectorIndex(store driven.VectorStore, embedder driven.EmbeddingService) *VectorIndex {
	return &VectorIndex{
		store:    store,
		embedder: embedder,
	}
}

// Insert embeds every chunk in one batch call and publishes the document
// with its chunks in one Put.
func (v *VectorIndex) Insert(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if v.store == nil {
		return domain.ErrVectorIndexUnavailable
	}
	if v.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID required", domain.ErrInvalidInput)
	}

	embedded := make([]domain.Chunk, len(chunks))
	copy(embedded, chunks)

	if len(embedded) > 0 {
		texts := make([]string, len(embedded))
		for i, c := range embedded {
			texts[i] = c.Content
		}

		start := time.Now()
		vectors, err := v.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks of %s: %w", doc.Name, err)
		}
		if len(vectors) != len(embedded) {
			return fmt.Errorf("%w: %d embeddings for %d chunks", domain.ErrProviderUnavailable, len(vectors), len(embedded))
		}
		logger.Debug("Embedded %d chunks of %q in %v", len(embedded), doc.Name, time.Since(start).Round(time.Millisecond))

		for i := range embedded {
			embedded[i].DocumentID = doc.ID
			embedded[i].Embedding = vectors[i]
		}
	}

	if err := v.store.Put(ctx, doc, embedded); err != nil {
		return fmt.Errorf("store %s: %w", doc.Name, err)
	}
	logger.Info("Indexed %q: %d chunks", doc.Name, len(embedded))
	return nil
}

// Search embeds the query and returns the best topK chunks.
func (v *VectorIndex) Search(
	ctx context.Context,
	query string,
	topK int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	if v.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vector, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	return v.SearchVector(ctx, vector, topK, filter)
}

// SearchVector returns the best topK chunks for a precomputed vector.
func (v *VectorIndex) SearchVector(
	ctx context.Context,
	vector []float32,
	topK int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	if v.store == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	results, err := v.store.Query(ctx, vector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	logger.Debug("Vector search: %d hits (topK=%d)", len(results), topK)
	return results, nil
}

// Delete removes a document and its chunks.
func (v *VectorIndex) Delete(ctx context.Context, documentID string) error {
	if v.store == nil {
		return domain.ErrVectorIndexUnavailable
	}
	return v.store.Delete(ctx, documentID)
}

// Get returns a document and its chunks.
func (v *VectorIndex) Get(ctx context.Context, documentID string) (*domain.Document, []domain.Chunk, error) {
	if v.store == nil {
		return nil, nil, domain.ErrVectorIndexUnavailable
	}
	return v.store.Get(ctx, documentID)
}

// List returns all documents in insertion order.
func (v *VectorIndex) List(ctx context.Context) ([]domain.Document, error) {
	if v.store == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	return v.store.List(ctx)
}

// Stats returns document and chunk counts.
func (v *VectorIndex) Stats(ctx context.Context) (domain.IndexStats, error) {
	if v.store == nil {
		return domain.IndexStats{}, domain.ErrVectorIndexUnavailable
	}
	return v.store.Stats(ctx)
}
