// Package chromem provides a driven.VectorStore backed by an embedded
// chromem-go database persisted to disk.
//
// Chunks live in one collection keyed by document ID and ordinal. Each
// document has a sidecar entry in a second collection that carries its
// metadata and insertion sequence. chromem-go normalises vectors on insert,
// so stored embeddings come back with unit length.
package chromem

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/custodia-labs/deepsearch/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Collection names.
const (
	chunkCollection    = "chunks"
	documentCollection = "documents"
)

// DirName is the database directory inside the data directory.
const DirName = "chromem"

// Metadata keys.
const (
	keyDocumentID   = "document_id"
	keyChunkID      = "chunk_id"
	keyStart        = "start_index"
	keyEnd          = "end_index"
	keyPosition     = "position"
	keySeq          = "seq"
	keyName         = "name"
	keySourceType   = "source_type"
	keySource       = "source"
	keyOriginalName = "original_name"
	keyWordCount    = "word_count"
	keyPageCount    = "page_count"
	keyCreatedAt    = "created_at"
	keyChunkCount   = "chunk_count"
)

// sidecarVector is the placeholder embedding of document entries.
var sidecarVector = []float32{1}

// Store is a chromem-go backed vector store.
type Store struct {
	db        *chromemgo.DB
	chunks    *chromemgo.Collection
	documents *chromemgo.Collection
	path      string

	mu      sync.RWMutex
	nextSeq int
}

// NewStore opens (creating if needed) a persistent database in dataDir/chromem.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".deepsearch", "data")
	}
	path := filepath.Join(dataDir, DirName)

	db, err := chromemgo.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening chromem database: %w", err)
	}
	return newStore(db, path)
}

// NewMemoryStore creates a non-persistent store.
func NewMemoryStore() (*Store, error) {
	return newStore(chromemgo.NewDB(), "")
}

func newStore(db *chromemgo.DB, path string) (*Store, error) {
	chunks, err := db.GetOrCreateCollection(chunkCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("opening chunk collection: %w", err)
	}
	documents, err := db.GetOrCreateCollection(documentCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("opening document collection: %w", err)
	}

	s := &Store{
		db:        db,
		chunks:    chunks,
		documents: documents,
		path:      path,
	}

	entries, err := s.allDocuments(context.Background())
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.seq >= s.nextSeq {
			s.nextSeq = e.seq + 1
		}
	}
	return s, nil
}

// Path returns the database directory, empty for memory stores.
func (s *Store) Path() string {
	return s.path
}

// Put stores the document sidecar and replaces its chunk set.
func (s *Store) Put(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID required", domain.ErrInvalidInput)
	}

	ordered := make([]domain.Chunk, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	for i := range ordered {
		if isZero(ordered[i].Embedding) {
			return fmt.Errorf("%w: chunk %s has no usable embedding", domain.ErrInvalidInput, ordered[i].ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextSeq
	if existing, err := s.documents.GetByID(ctx, doc.ID); err == nil {
		seq = atoi(existing.Metadata[keySeq])
	} else {
		s.nextSeq++
	}

	if err := s.deleteChunks(ctx, doc.ID); err != nil {
		return err
	}

	if len(ordered) > 0 {
		ids := make([]string, len(ordered))
		embeddings := make([][]float32, len(ordered))
		metadatas := make([]map[string]string, len(ordered))
		contents := make([]string, len(ordered))
		for i, chunk := range ordered {
			ids[i] = chunkKey(doc.ID, i)
			embeddings[i] = append([]float32(nil), chunk.Embedding...)
			metadatas[i] = map[string]string{
				keyDocumentID: doc.ID,
				keyChunkID:    chunk.ID,
				keyStart:      strconv.Itoa(chunk.StartIndex),
				keyEnd:        strconv.Itoa(chunk.EndIndex),
				keyPosition:   strconv.Itoa(chunk.Position),
			}
			contents[i] = chunk.Content
		}
		if err := s.chunks.Add(ctx, ids, embeddings, metadatas, contents); err != nil {
			return fmt.Errorf("saving chunks: %w", err)
		}
	}

	sidecar := chromemgo.Document{
		ID:        doc.ID,
		Content:   doc.RawText,
		Embedding: sidecarVector,
		Metadata: map[string]string{
			keySeq:          strconv.Itoa(seq),
			keyName:         doc.Name,
			keySourceType:   string(doc.SourceType),
			keySource:       doc.Metadata.Source,
			keyOriginalName: doc.Metadata.OriginalName,
			keyWordCount:    strconv.Itoa(doc.Metadata.WordCount),
			keyPageCount:    strconv.Itoa(doc.Metadata.PageCount),
			keyCreatedAt:    doc.CreatedAt.UTC().Format(time.RFC3339Nano),
			keyChunkCount:   strconv.Itoa(len(ordered)),
		},
	}
	if err := s.documents.AddDocument(ctx, sidecar); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Query scores every chunk passing the filter and returns the best topK.
func (s *Store) Query(
	ctx context.Context,
	vector []float32,
	topK int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.SearchResult, 0)
	n := s.chunks.Count()
	if n == 0 || topK <= 0 {
		return results, nil
	}

	var where map[string]string
	if len(filter.DocumentIDs) == 1 {
		where = map[string]string{keyDocumentID: filter.DocumentIDs[0]}
	}

	// Every candidate is fetched so ties can be ordered by insertion below.
	hits, err := s.chunks.QueryEmbedding(ctx, vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrInvalidInput, err)
	}

	docs := make(map[string]*docEntry)
	for _, hit := range hits {
		docID := hit.Metadata[keyDocumentID]
		if !filter.Matches(docID) {
			continue
		}
		entry, ok := docs[docID]
		if !ok {
			stored, err := s.documents.GetByID(ctx, docID)
			if err != nil {
				continue
			}
			entry = toDocEntry(stored)
			docs[docID] = entry
		}
		results = append(results, domain.SearchResult{
			Chunk:    toChunk(hit.ID, hit.Content, hit.Metadata, hit.Embedding),
			Document: entry.doc,
			Score:    similarity.Cosine(vector, hit.Embedding),
		})
	}

	// Restore insertion order before the stable ranking.
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if seqA, seqB := docs[a.Document.ID].seq, docs[b.Document.ID].seq; seqA != seqB {
			return seqA < seqB
		}
		return a.Chunk.Position < b.Chunk.Position
	})
	return similarity.TopK(results, topK), nil
}

// Delete removes the document sidecar and its chunks.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.documents.GetByID(ctx, documentID); err != nil {
		return nil
	}
	if err := s.deleteChunks(ctx, documentID); err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, nil, nil, documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// Get returns a document and its chunks in position order.
func (s *Store) Get(ctx context.Context, documentID string) (*domain.Document, []domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, domain.ErrNotFound
	}
	entry := toDocEntry(stored)

	chunks := make([]domain.Chunk, 0, entry.chunkCount)
	for i := 0; i < entry.chunkCount; i++ {
		c, err := s.chunks.GetByID(ctx, chunkKey(documentID, i))
		if err != nil {
			return nil, nil, fmt.Errorf("reading chunk %d of %s: %w", i, documentID, err)
		}
		chunks = append(chunks, toChunk(c.ID, c.Content, c.Metadata, c.Embedding))
	}
	return &entry.doc, chunks, nil
}

// List returns all documents in insertion order.
func (s *Store) List(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.allDocuments(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, len(entries))
	for i, e := range entries {
		docs[i] = e.doc
	}
	return docs, nil
}

// Stats returns document and chunk counts.
func (s *Store) Stats(_ context.Context) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.IndexStats{
		Documents: s.documents.Count(),
		Chunks:    s.chunks.Count(),
	}, nil
}

// Close is a no-op; chromem-go persists on every write.
func (s *Store) Close() error {
	return nil
}

// docEntry is a decoded sidecar entry.
type docEntry struct {
	doc        domain.Document
	seq        int
	chunkCount int
}

// allDocuments returns every sidecar entry ordered by sequence.
func (s *Store) allDocuments(ctx context.Context) ([]*docEntry, error) {
	n := s.documents.Count()
	if n == 0 {
		return nil, nil
	}
	// Every sidecar shares the same vector, so this returns them all.
	hits, err := s.documents.QueryEmbedding(ctx, sidecarVector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	entries := make([]*docEntry, len(hits))
	for i, hit := range hits {
		entries[i] = toDocEntry(chromemgo.Document{ID: hit.ID, Content: hit.Content, Metadata: hit.Metadata})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	return entries, nil
}

func (s *Store) deleteChunks(ctx context.Context, documentID string) error {
	if err := s.chunks.Delete(ctx, map[string]string{keyDocumentID: documentID}, nil); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func chunkKey(documentID string, ordinal int) string {
	return documentID + "#" + strconv.Itoa(ordinal)
}

func toDocEntry(d chromemgo.Document) *docEntry {
	m := d.Metadata
	createdAt, _ := time.Parse(time.RFC3339Nano, m[keyCreatedAt])
	return &docEntry{
		doc: domain.Document{
			ID:         d.ID,
			Name:       m[keyName],
			SourceType: domain.SourceType(m[keySourceType]),
			RawText:    d.Content,
			Metadata: domain.DocumentMetadata{
				Source:       m[keySource],
				OriginalName: m[keyOriginalName],
				WordCount:    atoi(m[keyWordCount]),
				PageCount:    atoi(m[keyPageCount]),
			},
			CreatedAt: createdAt,
		},
		seq:        atoi(m[keySeq]),
		chunkCount: atoi(m[keyChunkCount]),
	}
}

func toChunk(key, content string, m map[string]string, embedding []float32) domain.Chunk {
	id := m[keyChunkID]
	if id == "" {
		id = key
	}
	return domain.Chunk{
		ID:         id,
		DocumentID: m[keyDocumentID],
		Content:    content,
		StartIndex: atoi(m[keyStart]),
		EndIndex:   atoi(m[keyEnd]),
		Position:   atoi(m[keyPosition]),
		Embedding:  embedding,
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// isZero reports whether v is empty or has zero norm.
func isZero(v []float32) bool {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return sum == 0 || math.IsNaN(sum)
}
