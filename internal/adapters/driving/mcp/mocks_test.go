package mcp

import (
	"context"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results    []domain.SearchResult
	err        error
	lastQuery  string
	lastTopK   int
	lastFilter domain.SearchFilter
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	topK int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastTopK = topK
	m.lastFilter = filter
	return m.results, m.err
}

func (m *mockSearchService) BuildContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	return "[Source 1: " + results[0].Document.Name + "]\n" + results[0].Chunk.Content
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	details   *driving.DocumentDetails
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	return m.details, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{Documents: len(m.documents)}, m.err
}

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer   *driving.Answer
	err      error
	lastOpts driving.AskOptions
}

func (m *mockAskService) Ask(_ context.Context, _ string, opts driving.AskOptions) (*driving.Answer, error) {
	m.lastOpts = opts
	return m.answer, m.err
}

// mockResearchService is a mock implementation of driving.ResearchService.
type mockResearchService struct {
	query *domain.ResearchQuery
	err   error
}

func (m *mockResearchService) Research(
	_ context.Context,
	_ string,
	_ chan<- domain.ProgressEvent,
) (*domain.ResearchQuery, error) {
	return m.query, m.err
}
