package driving

import (
	"context"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// SearchService provides similarity search over the knowledge base.
type SearchService interface {
	// Search embeds the query and returns up to topK results, best first.
	Search(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error)

	// BuildContext formats results into a prompt-injectable context block.
	BuildContext(results []domain.SearchResult) string
}

// AskService answers questions grounded in the knowledge base.
type AskService interface {
	// Ask retrieves context for the question and asks the LLM to answer from it.
	Ask(ctx context.Context, question string, opts AskOptions) (*Answer, error)
}

// AskOptions configures a grounded answer.
type AskOptions struct {
	// TopK is the number of chunks retrieved as context.
	TopK int

	// Filter restricts retrieval to specific documents.
	Filter domain.SearchFilter
}

// Answer is a grounded LLM answer with the chunks it was given.
type Answer struct {
	Text    string
	Sources []domain.SearchResult
}
