package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.SyncService = (*SyncService)(nil)

// SyncService applies file changes to the knowledge base.
type SyncService struct {
	ingest    driving.IngestService
	documents driving.DocumentService
}

// NewSyncService creates a new sync service.
func NewSyncService(ingest driving.IngestService, documents driving.DocumentService) *SyncService {
	return &SyncService{ingest: ingest, documents: documents}
}

// Apply brings the knowledge base in line with one changed file. A changed
// file is ingested before its old documents are removed, so a failed
// re-ingest leaves the previous version searchable.
func (s *SyncService) Apply(ctx context.Context, change domain.FileChange) (*domain.Document, error) {
	if s.ingest == nil || s.documents == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	path := absPath(change.Path)

	previous, err := s.documentsFor(ctx, path)
	if err != nil {
		return nil, err
	}

	var doc *domain.Document
	switch change.Type {
	case domain.ChangeDeleted:
		logger.Debug("Sync: %s deleted, removing %d documents", path, len(previous))
	case domain.ChangeCreated, domain.ChangeUpdated:
		if !s.ingest.Supports(path) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Base(path))
		}
		if doc, err = s.ingest.IngestFile(ctx, path); err != nil {
			return nil, err
		}
		logger.Debug("Sync: %s %s as %s", path, change.Type, doc.ID)
	default:
		return nil, fmt.Errorf("%w: unknown change type %q", domain.ErrInvalidInput, change.Type)
	}

	for _, id := range previous {
		if err := s.documents.Delete(ctx, id); err != nil {
			return doc, fmt.Errorf("removing previous version of %s: %w", filepath.Base(path), err)
		}
	}
	return doc, nil
}

// SyncFiles ingests every path that has no document yet.
func (s *SyncService) SyncFiles(ctx context.Context, paths []string) []driving.IngestResult {
	if s.ingest == nil || s.documents == nil {
		results := make([]driving.IngestResult, len(paths))
		for i, p := range paths {
			results[i] = driving.IngestResult{Path: p, Err: domain.ErrVectorIndexUnavailable}
		}
		return results
	}

	indexed, err := s.sources(ctx)
	if err != nil {
		results := make([]driving.IngestResult, len(paths))
		for i, p := range paths {
			results[i] = driving.IngestResult{Path: p, Err: err}
		}
		return results
	}

	pending := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := indexed[absPath(p)]; ok {
			continue
		}
		pending = append(pending, p)
	}
	logger.Debug("Sync: %d of %d files need ingesting", len(pending), len(paths))
	if len(pending) == 0 {
		return nil
	}
	return s.ingest.IngestBatch(ctx, pending)
}

// documentsFor returns the IDs of documents ingested from path.
func (s *SyncService) documentsFor(ctx context.Context, path string) ([]string, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for i := range docs {
		if docs[i].Metadata.Source == path {
			ids = append(ids, docs[i].ID)
		}
	}
	return ids, nil
}

// sources returns the set of source paths already in the knowledge base.
func (s *SyncService) sources(ctx context.Context) (map[string]struct{}, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(docs))
	for i := range docs {
		set[docs[i].Metadata.Source] = struct{}{}
	}
	return set, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
