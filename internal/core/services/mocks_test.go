package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// mockEmbeddingService maps texts to vectors via a lookup function.
type mockEmbeddingService struct {
	mu      sync.Mutex
	vectors func(text string) []float32
	err     error
	calls   int
	batches [][]string
}

func newMockEmbedding() *mockEmbeddingService {
	return &mockEmbeddingService{vectors: keywordVector}
}

// keywordVector embeds text onto three axes: alpha, beta, gamma.
func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := []float32{0.01, 0.01, 0.01}
	if strings.Contains(lower, "alpha") {
		v[0] = 1
	}
	if strings.Contains(lower, "beta") {
		v[1] = 1
	}
	if strings.Contains(lower, "gamma") {
		v[2] = 1
	}
	return v
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.batches = append(m.batches, texts)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectors(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int { return 3 }
func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }
func (m *mockEmbeddingService) Ping(context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService returns scripted replies in order.
type mockLLMService struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	prompts  []string
	messages [][]driven.ChatMessage
	onCall   func(n int)
}

func (m *mockLLMService) next(prompt string) (string, error) {
	m.mu.Lock()
	n := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	hook := m.onCall
	m.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if n < len(m.errs) && m.errs[n] != nil {
		return "", m.errs[n]
	}
	if n < len(m.replies) {
		return m.replies[n], nil
	}
	return "", errors.New("mock llm: no reply scripted")
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return m.next(prompt)
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.messages = append(m.messages, messages)
	m.mu.Unlock()
	return m.next(messages[len(messages)-1].Content)
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }
func (m *mockLLMService) Ping(context.Context) error { return nil }
func (m *mockLLMService) Close() error { return nil }

// mockSearcher answers sub-questions from a map, failing on listed ones.
type mockSearcher struct {
	mu       sync.Mutex
	answers  map[string]string
	failures map[string]error
	asked    []string
	onSearch func(question string)
}

func (m *mockSearcher) Search(_ context.Context, question string) (string, error) {
	m.mu.Lock()
	m.asked = append(m.asked, question)
	hook := m.onSearch
	m.mu.Unlock()

	if hook != nil {
		hook(question)
	}
	if err, ok := m.failures[question]; ok {
		return "", err
	}
	return m.answers[question], nil
}

func (m *mockSearcher) Name() string { return "mock" }

// mockTranscriber returns a fixed transcript.
type mockTranscriber struct {
	transcript *domain.Transcript
	err        error
	filenames  []string
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ []byte, filename string) (*domain.Transcript, error) {
	m.filenames = append(m.filenames, filename)
	if m.err != nil {
		return nil, m.err
	}
	return m.transcript, nil
}

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}

// failingStore is a VectorStore whose Put always fails.
type failingStore struct {
	driven.VectorStore
	err error
}

func (f *failingStore) Put(context.Context, *domain.Document, []domain.Chunk) error {
	return f.err
}
