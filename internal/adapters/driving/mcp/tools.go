package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// SearchInput is the input schema for the search and build_context tools.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the question or text to find similar passages for"`
	TopK        int      `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict the search to these documents"`
}

func (in SearchInput) filter() domain.SearchFilter {
	return domain.SearchFilter{DocumentIDs: in.DocumentIDs}
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	ChunkID      string  `json:"chunk_id"`
	Position     int     `json:"position"`
	Score        float64 `json:"score"`
	Content      string  `json:"content"`
}

// ContextOutput is the output schema for the build_context tool.
type ContextOutput struct {
	Context string `json:"context"`
	Sources int    `json:"sources"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string   `json:"question" jsonschema:"the question to answer from the knowledge base"`
	TopK        int      `json:"top_k,omitempty" jsonschema:"number of passages given to the model (default 5)"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict retrieval to these documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string               `json:"answer"`
	Sources []SearchResultOutput `json:"sources"`
}

// ResearchInput is the input schema for the research tool.
type ResearchInput struct {
	Question string `json:"question" jsonschema:"the research question to investigate on the web"`
}

// ResearchOutput is the output schema for the research tool.
type ResearchOutput struct {
	Question     string            `json:"question"`
	SubQuestions []string          `json:"sub_questions"`
	Report       string            `json:"report"`
	Citations    []domain.Citation `json:"citations"`
	Failed       []string          `json:"failed_sub_questions,omitempty"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// DocumentOutput describes one knowledge base document.
type DocumentOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SourceType string `json:"source_type"`
	Source     string `json:"source"`
	WordCount  int    `json:"word_count"`
	PageCount  int    `json:"page_count,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"the ID of the document to read"`
}

// GetDocumentOutput is the output schema for the get_document tool.
type GetDocumentOutput struct {
	Document DocumentOutput `json:"document"`
	Text     string         `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the passages in the knowledge base most similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_context",
		Description: "Search the knowledge base and return the hits as a numbered context block for a prompt",
	}, s.handleBuildContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only passages retrieved from the knowledge base",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "research",
		Description: "Research a question on the web: decompose it, search each part and write a cited report",
	}, s.handleResearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List every document in the knowledge base",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Read the extracted text of a knowledge base document",
	}, s.handleGetDocument)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.Query, input.TopK, input.filter())
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: toResultOutputs(results),
		Count:   len(results),
	}, nil
}

// handleBuildContext handles the build_context tool invocation.
func (s *Server) handleBuildContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.Query, input.TopK, input.filter())
	if err != nil {
		return nil, ContextOutput{}, err
	}

	return nil, ContextOutput{
		Context: s.ports.Search.BuildContext(results),
		Sources: len(results),
	}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Ask == nil {
		return nil, AskOutput{}, fmt.Errorf("%w: ask needs an LLM provider", ErrToolUnavailable)
	}

	answer, err := s.ports.Ask.Ask(ctx, input.Question, driving.AskOptions{
		TopK:   input.TopK,
		Filter: domain.SearchFilter{DocumentIDs: input.DocumentIDs},
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Sources: toResultOutputs(answer.Sources),
	}, nil
}

// handleResearch handles the research tool invocation.
func (s *Server) handleResearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResearchInput,
) (*mcp.CallToolResult, ResearchOutput, error) {
	if s.ports.Research == nil {
		return nil, ResearchOutput{}, fmt.Errorf("%w: research needs an LLM and a search provider", ErrToolUnavailable)
	}

	query, err := s.ports.Research.Research(ctx, input.Question, nil)
	if err != nil {
		return nil, ResearchOutput{}, err
	}

	output := ResearchOutput{
		Question:     query.Question,
		SubQuestions: query.SubQuestions,
		Report:       query.Synthesis,
		Citations:    query.Citations,
	}
	for _, r := range query.SearchResults {
		if r.Failed() {
			output.Failed = append(output.Failed, r.Question)
		}
	}
	logger.Debug("mcp: research finished with %d citations", len(output.Citations))
	return nil, output, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Document == nil {
		return nil, ListDocumentsOutput{}, ErrToolUnavailable
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = toDocumentOutput(&docs[i])
	}
	return nil, output, nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	if s.ports.Document == nil {
		return nil, GetDocumentOutput{}, ErrToolUnavailable
	}

	doc, err := s.ports.Document.Get(ctx, input.DocumentID)
	if err != nil {
		return nil, GetDocumentOutput{}, err
	}

	return nil, GetDocumentOutput{
		Document: toDocumentOutput(doc),
		Text:     doc.RawText,
	}, nil
}

func toResultOutputs(results []domain.SearchResult) []SearchResultOutput {
	out := make([]SearchResultOutput, len(results))
	for i := range results {
		out[i] = SearchResultOutput{
			DocumentID:   results[i].Document.ID,
			DocumentName: results[i].Document.Name,
			ChunkID:      results[i].Chunk.ID,
			Position:     results[i].Chunk.Position,
			Score:        results[i].Score,
			Content:      results[i].Chunk.Content,
		}
	}
	return out
}

func toDocumentOutput(doc *domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:         doc.ID,
		Name:       doc.Name,
		SourceType: string(doc.SourceType),
		Source:     doc.Metadata.Source,
		WordCount:  doc.Metadata.WordCount,
		PageCount:  doc.Metadata.PageCount,
		CreatedAt:  doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
