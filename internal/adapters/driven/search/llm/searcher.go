// Package llm provides an online searcher backed by a search-capable chat model.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Ensure Searcher implements the interfaces.
var (
	_ driven.OnlineSearcher   = (*Searcher)(nil)
	_ driven.PromptStoreAware = (*Searcher)(nil)
)

// DefaultMaxTokens bounds the length of one sub-question answer.
const DefaultMaxTokens = 1024

// Searcher researches a question by prompting an LLM that has web access.
type Searcher struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	maxTokens   int
}

// NewSearcher creates a searcher over the given model.
func NewSearcher(llm driven.LLMService) *Searcher {
	return &Searcher{llm: llm, maxTokens: DefaultMaxTokens}
}

// SetPromptStore sets the prompt store for loading the search prompt.
func (s *Searcher) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Search asks the model about question and returns its answer verbatim.
func (s *Searcher) Search(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: empty search question", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return "", domain.ErrSearchUnavailable
	}

	prompt := fmt.Sprintf(driven.ResolvePrompt(s.promptStore, driven.PromptSearch), question)
	answer, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("search %q: %w", question, err)
	}
	return strings.TrimSpace(answer), nil
}

// Name identifies the backend for logging.
func (s *Searcher) Name() string {
	if s.llm == nil {
		return "llm"
	}
	return "llm:" + s.llm.ModelName()
}
