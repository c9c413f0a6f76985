package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService provides similarity search over the knowledge base.
type SearchService struct {
	index driving.IndexService
}

// NewSearchService creates a new search service.
func NewSearchService(index driving.IndexService) *SearchService {
	return &SearchService{index: index}
}

// Search embeds the query and returns up to topK results, best first.
func (s *SearchService) Search(
	ctx context.Context,
	query string,
	topK int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	// Return empty for empty query
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	if len(filter.DocumentIDs) > 0 {
		logger.Debug("Document filter: %v", filter.DocumentIDs)
	}

	start := time.Now()
	results, err := s.index.Search(ctx, query, topK, filter)
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.Info("Final results: %d in %v", len(results), time.Since(start).Round(time.Millisecond))
	return results, nil
}

// BuildContext formats results into a prompt-injectable context block.
func (s *SearchService) BuildContext(results []domain.SearchResult) string {
	return BuildContext(results)
}
