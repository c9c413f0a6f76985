package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure AskService implements the interfaces.
var (
	_ driving.AskService      = (*AskService)(nil)
	_ driven.PromptStoreAware = (*AskService)(nil)
)

// noContext replaces the context block when retrieval finds nothing.
const noContext = "(no matching passages were found in the knowledge base)"

// AskService answers questions from retrieved knowledge base context.
type AskService struct {
	search  driving.SearchService
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewAskService creates a new ask service.
func NewAskService(search driving.SearchService, llm driven.LLMService) *AskService {
	return &AskService{
		search: search,
		llm:    llm,
	}
}

// SetPromptStore sets the prompt store for the system prompt.
func (s *AskService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Ask retrieves context for the question and asks the LLM to answer from it.
func (s *AskService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*driving.Answer, error) {
	logger.Section("Ask")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if s.search == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	results, err := s.search.Search(ctx, question, opts.TopK, opts.Filter)
	if err != nil {
		return nil, err
	}
	logger.Debug("Retrieved %d passages", len(results))

	block := s.search.BuildContext(results)
	if block == "" {
		block = noContext
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: driven.ResolvePrompt(s.prompts, driven.PromptAskSystem)},
		{Role: driven.RoleUser, Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", block, question)},
	}

	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{MaxTokens: 1024, Temperature: 0.2})
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}

	return &driving.Answer{
		Text:    strings.TrimSpace(answer),
		Sources: results,
	}, nil
}
