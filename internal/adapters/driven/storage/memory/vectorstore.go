package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/deepsearch/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// entry is a stored document with its chunk set and insertion sequence.
type entry struct {
	seq    uint64
	doc    domain.Document
	chunks []domain.Chunk
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Contents are lost when the process exits.
type VectorStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq uint64
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		entries: make(map[string]*entry),
	}
}

// Put stores the document and replaces its chunk set.
// The new chunk set is copied before the write lock is taken.
func (s *VectorStore) Put(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID required", domain.ErrInvalidInput)
	}

	batch := make([]domain.Chunk, len(chunks))
	for i := range chunks {
		if len(chunks[i].Embedding) == 0 {
			return fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, chunks[i].ID)
		}
		batch[i] = chunks[i]
		batch[i].Embedding = append([]float32(nil), chunks[i].Embedding...)
	}
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Position < batch[j].Position
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-inserting keeps the original sequence so List order is stable.
	seq := s.nextSeq
	if existing, ok := s.entries[doc.ID]; ok {
		seq = existing.seq
	} else {
		s.nextSeq++
	}
	s.entries[doc.ID] = &entry{seq: seq, doc: *doc, chunks: batch}
	return nil
}

// Query scores every chunk passing the filter and returns the best topK.
func (s *VectorStore) Query(
	_ context.Context,
	vector []float32,
	topK int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.SearchResult, 0)
	for _, e := range s.ordered() {
		if !filter.Matches(e.doc.ID) {
			continue
		}
		for _, chunk := range e.chunks {
			results = append(results, domain.SearchResult{
				Chunk:    chunk,
				Document: e.doc,
				Score:    similarity.Cosine(vector, chunk.Embedding),
			})
		}
	}

	return similarity.TopK(results, topK), nil
}

// Delete removes a document and its chunks.
func (s *VectorStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, documentID)
	return nil
}

// Get returns a document and its chunks in position order.
func (s *VectorStore) Get(_ context.Context, documentID string) (*domain.Document, []domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[documentID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	doc := e.doc
	chunks := make([]domain.Chunk, len(e.chunks))
	copy(chunks, e.chunks)
	return &doc, chunks, nil
}

// List returns all documents in insertion order.
func (s *VectorStore) List(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.ordered()
	docs := make([]domain.Document, len(entries))
	for i, e := range entries {
		docs[i] = e.doc
	}
	return docs, nil
}

// Stats returns document and chunk counts.
func (s *VectorStore) Stats(_ context.Context) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.IndexStats{Documents: len(s.entries)}
	for _, e := range s.entries {
		stats.Chunks += len(e.chunks)
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (s *VectorStore) Close() error {
	return nil
}

// ordered returns entries by insertion sequence. Callers hold the lock.
func (s *VectorStore) ordered() []*entry {
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	return entries
}
