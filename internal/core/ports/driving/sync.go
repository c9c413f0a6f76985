package driving

import (
	"context"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// SyncService keeps the knowledge base in step with files on disk.
// Documents are matched to files by their absolute source path.
type SyncService interface {
	// Apply re-ingests a created or updated file, replacing any document
	// previously ingested from the same path, or removes the documents of
	// a deleted file. The returned document is nil for deletions.
	Apply(ctx context.Context, change domain.FileChange) (*domain.Document, error)

	// SyncFiles ingests the files that have no document yet. Files
	// already in the knowledge base are skipped and left out of the results.
	SyncFiles(ctx context.Context, paths []string) []IngestResult
}
