package driving

import (
	"context"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// IngestService adds files to the knowledge base.
type IngestService interface {
	// IngestFile reads, parses, chunks, embeds and stores a file from disk.
	IngestFile(ctx context.Context, path string) (*domain.Document, error)

	// IngestBytes parses, chunks, embeds and stores an in-memory file.
	IngestBytes(ctx context.Context, data []byte, filename, source string) (*domain.Document, error)

	// IngestBatch ingests files independently. A failure never aborts siblings.
	IngestBatch(ctx context.Context, paths []string) []IngestResult

	// IngestTranscript transcribes an audio file and stores the transcript.
	IngestTranscript(ctx context.Context, path string) (*domain.Document, error)

	// Supports returns true if the file can be ingested.
	Supports(filename string) bool
}

// IngestResult reports the outcome of ingesting one file.
type IngestResult struct {
	// Path is the file that was ingested.
	Path string

	// Document is set on success.
	Document *domain.Document

	// Chunks is the number of chunks stored.
	Chunks int

	// Err names why the file failed.
	Err error
}
