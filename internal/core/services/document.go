package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages documents held in the knowledge base.
type DocumentService struct {
	index driving.IndexService
}

// NewDocumentService creates a new document service.
func NewDocumentService(index driving.IndexService) *DocumentService {
	return &DocumentService{index: index}
}

// List returns all documents in insertion order.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	return s.index.List(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, domain.ErrNotFound
	}
	doc, _, err := s.index.Get(ctx, documentID)
	return doc, err
}

// GetDetails returns metadata and chunk counts for display.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	doc, chunks, err := s.index.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return &driving.DocumentDetails{
		ID:         doc.ID,
		Name:       doc.Name,
		SourceType: doc.SourceType,
		Source:     doc.Metadata.Source,
		WordCount:  doc.Metadata.WordCount,
		PageCount:  doc.Metadata.PageCount,
		ChunkCount: len(chunks),
		CreatedAt:  doc.CreatedAt,
	}, nil
}

// Delete removes a document and its chunks. Unknown IDs are a no-op.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if s.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	logger.Debug("Deleting document %s", documentID)
	return s.index.Delete(ctx, documentID)
}

// Stats returns knowledge base totals.
func (s *DocumentService) Stats(ctx context.Context) (domain.IndexStats, error) {
	if s.index == nil {
		return domain.IndexStats{}, domain.ErrVectorIndexUnavailable
	}
	return s.index.Stats(ctx)
}
