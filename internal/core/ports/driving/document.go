package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// DocumentService manages documents held in the knowledge base.
type DocumentService interface {
	// List returns all documents in insertion order.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetDetails returns metadata and chunk counts for display.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Delete removes a document and its chunks. Unknown IDs are a no-op.
	Delete(ctx context.Context, documentID string) error

	// Stats returns knowledge base totals.
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// DocumentDetails provides a standardised view of document metadata.
type DocumentDetails struct {
	// ID is the unique document identifier.
	ID string

	// Name is the document name used for attribution.
	Name string

	// SourceType is the parsed format.
	SourceType domain.SourceType

	// Source is the original location.
	Source string

	// WordCount is the number of words in the extracted text.
	WordCount int

	// PageCount is the number of pages or slides, zero if not applicable.
	PageCount int

	// ChunkCount is the number of chunks.
	ChunkCount int

	// CreatedAt is when the document was added.
	CreatedAt time.Time
}
