package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

type mockLLM struct {
	prompt string
	opts   driven.GenerateOptions
	answer string
	err    error
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompt = prompt
	m.opts = opts
	return m.answer, m.err
}

func (m *mockLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	return "", errors.New("not used")
}

func (m *mockLLM) ModelName() string          { return "sonar" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

type fixedPrompts map[string]string

func (p fixedPrompts) Load(name string) (string, error) {
	if v, ok := p[name]; ok {
		return v, nil
	}
	return "", errors.New("missing")
}

func (p fixedPrompts) Reload() {}

func TestSearch_UsesDefaultPrompt(t *testing.T) {
	llm := &mockLLM{answer: "  Go 1.22 added range-over-int. https://go.dev/doc/go1.22  "}
	searcher := NewSearcher(llm)

	answer, err := searcher.Search(context.Background(), "What changed in Go 1.22?")
	require.NoError(t, err)

	assert.Equal(t, "Go 1.22 added range-over-int. https://go.dev/doc/go1.22", answer)
	assert.Contains(t, llm.prompt, "What changed in Go 1.22?")
	assert.Equal(t, DefaultMaxTokens, llm.opts.MaxTokens)
	assert.Equal(t, "llm:sonar", searcher.Name())
}

func TestSearch_UsesPromptStore(t *testing.T) {
	llm := &mockLLM{answer: "ok"}
	searcher := NewSearcher(llm)
	searcher.SetPromptStore(fixedPrompts{driven.PromptSearch: "Q=%s"})

	_, err := searcher.Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Q=x", llm.prompt)
}

func TestSearch_Errors(t *testing.T) {
	_, err := NewSearcher(&mockLLM{}).Search(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewSearcher(nil).Search(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)

	_, err = NewSearcher(&mockLLM{err: domain.ErrProviderUnavailable}).Search(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
