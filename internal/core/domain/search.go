package domain

// DefaultTopK is used when a search does not specify a result count.
const DefaultTopK = 5

// SearchFilter restricts which records a similarity search considers.
type SearchFilter struct {
	// DocumentIDs limits candidates to these documents. Empty means all.
	DocumentIDs []string
}

// Matches returns true if the document passes the filter.
func (f SearchFilter) Matches(documentID string) bool {
	if len(f.DocumentIDs) == 0 {
		return true
	}
	for _, id := range f.DocumentIDs {
		if id == documentID {
			return true
		}
	}
	return false
}

// SearchResult represents a single similarity hit.
type SearchResult struct {
	// Chunk is the chunk that matched.
	Chunk Chunk

	// Document is the chunk's parent document.
	Document Document

	// Score is the cosine similarity in [-1, 1]. Higher is better.
	Score float64
}

// IndexStats summarises the contents of a vector store.
type IndexStats struct {
	Documents int
	Chunks    int
}
