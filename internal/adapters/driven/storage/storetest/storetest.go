// Package storetest holds the behaviour every driven.VectorStore must share,
// run by each backend's tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Factory opens an empty store for one subtest.
type Factory func(t *testing.T) driven.VectorStore

// Document builds a document fixture.
func Document(id, name string) *domain.Document {
	return &domain.Document{
		ID:         id,
		Name:       name,
		SourceType: domain.SourceTypeText,
		RawText:    "raw text of " + name,
		Metadata: domain.DocumentMetadata{
			Source:       "/tmp/" + name,
			OriginalName: name,
			WordCount:    4,
		},
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Chunks builds one chunk per vector, in position order.
func Chunks(docID string, vectors ...[]float32) []domain.Chunk {
	chunks := make([]domain.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = domain.Chunk{
			ID:         fmt.Sprintf("%s-%d", docID, i),
			DocumentID: docID,
			Content:    fmt.Sprintf("chunk %d of %s", i, docID),
			StartIndex: i * 10,
			EndIndex:   i*10 + 10,
			Position:   i,
			Embedding:  v,
		}
	}
	return chunks
}

// Run exercises the VectorStore contract against stores from newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store queries empty", func(t *testing.T) {
		store := newStore(t)
		results, err := store.Query(ctx, []float32{1, 0, 0}, 5, domain.SearchFilter{})
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.IndexStats{}, stats)
	})

	t.Run("query ranks the closest chunk first", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, Document("doc-1", "a.txt"), Chunks("doc-1",
			[]float32{1, 0, 0},
			[]float32{0, 1, 0},
			[]float32{0.6, 0.8, 0},
			[]float32{0, 0, 1},
		)))

		results, err := store.Query(ctx, []float32{0.6, 0.8, 0}, 2, domain.SearchFilter{})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "doc-1-2", results[0].Chunk.ID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.Equal(t, "doc-1-1", results[1].Chunk.ID)
		assert.InDelta(t, 0.8, results[1].Score, 1e-6)
		assert.Equal(t, "a.txt", results[0].Document.Name)
		assert.Equal(t, "chunk 2 of doc-1", results[0].Chunk.Content)
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, Document("doc-a", "a.txt"), Chunks("doc-a",
			[]float32{1, 0}, []float32{1, 0})))
		require.NoError(t, store.Put(ctx, Document("doc-b", "b.txt"), Chunks("doc-b",
			[]float32{2, 0})))

		results, err := store.Query(ctx, []float32{1, 0}, 3, domain.SearchFilter{})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "doc-a-0", results[0].Chunk.ID)
		assert.Equal(t, "doc-a-1", results[1].Chunk.ID)
		assert.Equal(t, "doc-b-0", results[2].Chunk.ID)
	})

	t.Run("filter restricts candidates", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, Document("doc-a", "a.txt"), Chunks("doc-a", []float32{1, 0})))
		require.NoError(t, store.Put(ctx, Document("doc-b", "b.txt"), Chunks("doc-b", []float32{0, 1})))

		results, err := store.Query(ctx, []float32{1, 0}, 5, domain.SearchFilter{DocumentIDs: []string{"doc-b"}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "doc-b", results[0].Document.ID)
	})

	t.Run("put replaces the chunk set", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, Document("doc-1", "a.txt"), Chunks("doc-1",
			[]float32{1, 0}, []float32{0, 1}, []float32{1, 1})))
		require.NoError(t, store.Put(ctx, Document("doc-1", "a.txt"), Chunks("doc-1",
			[]float32{0, 1})))

		_, chunks, err := store.Get(ctx, "doc-1")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, []float32{0, 1}, chunks[0].Embedding)

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.IndexStats{Documents: 1, Chunks: 1}, stats)
	})

	t.Run("get returns document and ordered chunks", func(t *testing.T) {
		store := newStore(t)
		doc := Document("doc-1", "a.txt")
		doc.Metadata.PageCount = 3
		require.NoError(t, store.Put(ctx, doc, Chunks("doc-1", []float32{1, 0}, []float32{0, 1})))

		got, chunks, err := store.Get(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, doc.Name, got.Name)
		assert.Equal(t, doc.SourceType, got.SourceType)
		assert.Equal(t, doc.RawText, got.RawText)
		assert.Equal(t, doc.Metadata, got.Metadata)
		assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))
		require.Len(t, chunks, 2)
		assert.Equal(t, 0, chunks[0].Position)
		assert.Equal(t, 1, chunks[1].Position)
		assert.Equal(t, 10, chunks[1].StartIndex)
		assert.Equal(t, 20, chunks[1].EndIndex)
	})

	t.Run("get unknown is not found", func(t *testing.T) {
		store := newStore(t)
		_, _, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete cascades to chunks", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, Document("doc-a", "a.txt"), Chunks("doc-a", []float32{1, 0}, []float32{1, 1})))
		require.NoError(t, store.Put(ctx, Document("doc-b", "b.txt"), Chunks("doc-b", []float32{0, 1})))

		require.NoError(t, store.Delete(ctx, "doc-a"))

		_, _, err := store.Get(ctx, "doc-a")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		results, err := store.Query(ctx, []float32{1, 0}, 10, domain.SearchFilter{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "doc-b", results[0].Document.ID)

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.IndexStats{Documents: 1, Chunks: 1}, stats)
	})

	t.Run("delete unknown is a no-op", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.Delete(ctx, "missing"))
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		store := newStore(t)
		for _, id := range []string{"doc-c", "doc-a", "doc-b"} {
			require.NoError(t, store.Put(ctx, Document(id, id+".txt"), Chunks(id, []float32{1})))
		}
		require.NoError(t, store.Put(ctx, Document("doc-c", "doc-c.txt"), Chunks("doc-c", []float32{0.5})))

		docs, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "doc-c", docs[0].ID)
		assert.Equal(t, "doc-a", docs[1].ID)
		assert.Equal(t, "doc-b", docs[2].ID)
	})

	t.Run("put rejects chunks without embeddings", func(t *testing.T) {
		store := newStore(t)
		chunks := Chunks("doc-1", []float32{1, 0})
		chunks[0].Embedding = nil

		err := store.Put(ctx, Document("doc-1", "a.txt"), chunks)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, _, err = store.Get(ctx, "doc-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("concurrent readers see whole chunk sets", func(t *testing.T) {
		store := newStore(t)
		small := Chunks("doc-1", []float32{1, 0})
		large := Chunks("doc-1", []float32{1, 0}, []float32{0, 1}, []float32{1, 1})
		require.NoError(t, store.Put(ctx, Document("doc-1", "a.txt"), small))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				set := small
				if i%2 == 0 {
					set = large
				}
				assert.NoError(t, store.Put(ctx, Document("doc-1", "a.txt"), set))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, chunks, err := store.Get(ctx, "doc-1")
				if assert.NoError(t, err) {
					assert.Contains(t, []int{1, 3}, len(chunks))
				}
			}
		}()
		wg.Wait()
	})
}
