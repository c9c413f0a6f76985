package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

var testCreatedAt = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func testDocument() *domain.Document {
	return &domain.Document{
		ID:         "doc-1",
		Name:       "Test Document 1",
		SourceType: domain.SourceTypeMarkdown,
		RawText:    "# Test\n\nFull document text.",
		Metadata: domain.DocumentMetadata{
			Source:       "/notes/test.md",
			OriginalName: "test.md",
			WordCount:    4,
		},
		CreatedAt: testCreatedAt,
	}
}

// mockSearchService implements driving.SearchService.
type mockSearchService struct {
	SearchFunc func(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error)
}

func (m *mockSearchService) Search(
	ctx context.Context, query string, topK int, filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, topK, filter)
	}
	return []domain.SearchResult{
		{
			Document: *testDocument(),
			Chunk:    domain.Chunk{ID: "doc-1_0", DocumentID: "doc-1", Content: "matching   chunk\ntext", Embedding: []float32{0.1}},
			Score:    0.87,
		},
	}, nil
}

func (m *mockSearchService) BuildContext(results []domain.SearchResult) string {
	return "[Source: Test Document 1]\nmatching chunk text"
}

// mockAskService implements driving.AskService.
type mockAskService struct {
	AskFunc func(ctx context.Context, question string, opts driving.AskOptions) (*driving.Answer, error)
}

func (m *mockAskService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*driving.Answer, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question, opts)
	}
	results, _ := (&mockSearchService{}).Search(ctx, question, opts.TopK, opts.Filter)
	return &driving.Answer{Text: "The answer is 42.", Sources: results}, nil
}

// mockResearchService implements driving.ResearchService.
type mockResearchService struct {
	ResearchFunc func(ctx context.Context, question string, events chan<- domain.ProgressEvent) (*domain.ResearchQuery, error)
}

func (m *mockResearchService) Research(
	ctx context.Context, question string, events chan<- domain.ProgressEvent,
) (*domain.ResearchQuery, error) {
	if m.ResearchFunc != nil {
		return m.ResearchFunc(ctx, question, events)
	}
	if events != nil {
		events <- domain.ProgressEvent{Phase: domain.PhaseDecompose, Message: "Decomposed into 1 sub-question"}
		events <- domain.ProgressEvent{
			Phase: domain.PhaseSearch, SubQuestionIndex: 1, SubQuestionTotal: 1, Message: "Searched: what is Go?",
		}
	}
	return &domain.ResearchQuery{
		ID:           "r-1",
		Question:     question,
		SubQuestions: []string{"what is Go?"},
		SearchResults: []domain.SubQuestionResult{
			{Question: "what is Go?", Answer: "A language.", Sources: []domain.Citation{{ID: 1, Title: "Go", URL: "https://go.dev"}}},
		},
		Synthesis: "Go is a programming language [1].",
		Citations: []domain.Citation{{ID: 1, Title: "Go", URL: "https://go.dev"}},
		Status:    domain.ResearchComplete,
		StartedAt: testCreatedAt,
	}, nil
}

// mockIngestService implements driving.IngestService.
type mockIngestService struct {
	IngestBatchFunc func(ctx context.Context, paths []string) []driving.IngestResult
	batches         [][]string
}

func (m *mockIngestService) IngestFile(ctx context.Context, path string) (*domain.Document, error) {
	return testDocument(), nil
}

func (m *mockIngestService) IngestBytes(
	ctx context.Context, data []byte, filename, source string,
) (*domain.Document, error) {
	return testDocument(), nil
}

func (m *mockIngestService) IngestBatch(ctx context.Context, paths []string) []driving.IngestResult {
	m.batches = append(m.batches, paths)
	if m.IngestBatchFunc != nil {
		return m.IngestBatchFunc(ctx, paths)
	}
	results := make([]driving.IngestResult, len(paths))
	for i, p := range paths {
		results[i] = driving.IngestResult{Path: p, Document: testDocument(), Chunks: 2}
	}
	return results
}

func (m *mockIngestService) IngestTranscript(ctx context.Context, path string) (*domain.Document, error) {
	return testDocument(), nil
}

func (m *mockIngestService) Supports(filename string) bool {
	switch filepath.Ext(filename) {
	case ".md", ".txt", ".pdf":
		return true
	}
	return domain.IsAudioFile(filename)
}

// mockDocumentService implements driving.DocumentService.
type mockDocumentService struct {
	ListFunc   func(ctx context.Context) ([]domain.Document, error)
	GetFunc    func(ctx context.Context, id string) (*domain.Document, error)
	DeleteFunc func(ctx context.Context, id string) error
	deleted    []string
}

func (m *mockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []domain.Document{*testDocument()}, nil
}

func (m *mockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	if id != "doc-1" {
		return nil, domain.ErrNotFound
	}
	return testDocument(), nil
}

func (m *mockDocumentService) GetDetails(ctx context.Context, id string) (*driving.DocumentDetails, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &driving.DocumentDetails{
		ID:         doc.ID,
		Name:       doc.Name,
		SourceType: doc.SourceType,
		Source:     doc.Metadata.Source,
		WordCount:  doc.Metadata.WordCount,
		PageCount:  3,
		ChunkCount: 2,
		CreatedAt:  doc.CreatedAt,
	}, nil
}

func (m *mockDocumentService) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockDocumentService) Stats(ctx context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{Documents: 1, Chunks: 2}, nil
}

// mockSyncService implements driving.SyncService.
type mockSyncService struct {
	ApplyFunc func(ctx context.Context, change domain.FileChange) (*domain.Document, error)
	applied   []domain.FileChange
	synced    [][]string
}

func (m *mockSyncService) Apply(ctx context.Context, change domain.FileChange) (*domain.Document, error) {
	m.applied = append(m.applied, change)
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, change)
	}
	if change.Type == domain.ChangeDeleted {
		return nil, nil
	}
	doc := testDocument()
	doc.ID = "doc-2"
	return doc, nil
}

func (m *mockSyncService) SyncFiles(ctx context.Context, paths []string) []driving.IngestResult {
	m.synced = append(m.synced, paths)
	results := make([]driving.IngestResult, len(paths))
	for i, p := range paths {
		results[i] = driving.IngestResult{Path: p, Document: testDocument(), Chunks: 1}
	}
	return results
}

// mockValidator implements driven.AIConfigValidator.
type mockValidator struct {
	embeddingErr error
	llmErr       error
}

func (m *mockValidator) ValidateEmbedding(*domain.EmbeddingSettings) error { return m.embeddingErr }

func (m *mockValidator) ValidateLLM(*domain.LLMSettings) error { return m.llmErr }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search   *mockSearchService
	ask      *mockAskService
	research *mockResearchService
	ingest   *mockIngestService
	document *mockDocumentService
	sync     *mockSyncService
}

// setupTestServices installs mock services and returns a cleanup function
// that restores the previous ones.
func setupTestServices() (*testServices, func()) {
	prevSearch, prevAsk, prevResearch := searchService, askService, researchService
	prevIngest, prevDocument, prevSync := ingestService, documentService, syncService
	prevBootstrap, prevBootstrapped := bootstrap, bootstrapped

	ts := &testServices{
		search:   &mockSearchService{},
		ask:      &mockAskService{},
		research: &mockResearchService{},
		ingest:   &mockIngestService{},
		document: &mockDocumentService{},
		sync:     &mockSyncService{},
	}
	bootstrap = nil
	SetServices(&Services{
		Search:   ts.search,
		Ask:      ts.ask,
		Research: ts.research,
		Ingest:   ts.ingest,
		Document: ts.document,
		Sync:     ts.sync,
	})

	return ts, func() {
		searchService, askService, researchService = prevSearch, prevAsk, prevResearch
		ingestService, documentService, syncService = prevIngest, prevDocument, prevSync
		bootstrap, bootstrapped = prevBootstrap, prevBootstrapped
	}
}
