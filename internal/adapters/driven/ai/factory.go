// Package ai provides factory functions for creating AI service adapters
// and the vector store they feed.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/deepsearch/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/deepsearch/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/deepsearch/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/deepsearch/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/deepsearch/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/deepsearch/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/deepsearch/internal/adapters/driven/llm/openai"
	googlesearch "github.com/custodia-labs/deepsearch/internal/adapters/driven/search/google"
	llmsearch "github.com/custodia-labs/deepsearch/internal/adapters/driven/search/llm"
	"github.com/custodia-labs/deepsearch/internal/adapters/driven/storage/chromem"
	"github.com/custodia-labs/deepsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/deepsearch/internal/adapters/driven/storage/sqlite"
	openaitranscribe "github.com/custodia-labs/deepsearch/internal/adapters/driven/transcription/openai"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint is appended to provider errors.
const fixHint = "Run 'deepsearch config set' to fix"

// InitResult contains the result of service initialisation.
type InitResult struct {
	Store            driven.VectorStore
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Searcher         driven.OnlineSearcher
	Transcriber      driven.Transcriber
	PromptStore      driven.PromptStore // User-customisable prompt templates.
	Warnings         []string           // Non-fatal issues; the affected service is nil.

	// searchLLM backs an llm searcher and is closed with the result.
	searchLLM driven.LLMService
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
	if r.searchLLM != nil {
		r.searchLLM.Close()
	}
	if r.Store != nil {
		r.Store.Close()
	}
}

// Initialise opens the vector store and connects every configured provider.
// Only a store failure is fatal. Provider failures are recorded as warnings
// and leave the service nil so that commands not needing it still run.
func Initialise(settings *domain.AppSettings, dataDir string, prompts driven.PromptStore) (*InitResult, error) {
	store, err := CreateVectorStore(&settings.Store, dataDir)
	if err != nil {
		return nil, err
	}
	result := &InitResult{Store: store, PromptStore: prompts}

	warn := func(err error) {
		logger.Warn("%v", err)
		result.Warnings = append(result.Warnings, err.Error())
	}

	if result.EmbeddingService, err = CreateAndValidateEmbeddingService(&settings.Embedding); err != nil {
		warn(err)
	}
	if result.LLMService, err = CreateAndValidateLLMService(&settings.LLM); err != nil {
		warn(err)
	}

	searcher, searchLLM, err := createSearcher(&settings.Search)
	if err != nil {
		warn(err)
	} else if searcher != nil {
		result.Searcher = searcher
		result.searchLLM = searchLLM
		if aware, ok := searcher.(driven.PromptStoreAware); ok && prompts != nil {
			aware.SetPromptStore(prompts)
		}
	}

	if result.Transcriber, err = CreateTranscriber(&settings.Transcription); err != nil {
		warn(err)
	}

	return result, nil
}

// CreateVectorStore opens the configured store backend. Persistent backends
// use settings.Path when set and dataDir otherwise.
func CreateVectorStore(settings *domain.StoreSettings, dataDir string) (driven.VectorStore, error) {
	backend := domain.StoreBackendSQLite
	dir := dataDir
	if settings != nil {
		if settings.Backend != "" {
			backend = settings.Backend
		}
		if settings.Path != "" {
			dir = settings.Path
		}
	}
	logger.Debug("Vector store: %s (%s)", backend, dir)

	switch backend {
	case domain.StoreBackendMemory:
		return memory.NewVectorStore(), nil

	case domain.StoreBackendSQLite:
		store, err := sqlite.NewStore(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
		return store, nil

	case domain.StoreBackendChromem:
		store, err := chromem.NewStore(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: unsupported store backend %q (memory, sqlite, chromem)",
			domain.ErrInvalidInput, backend)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}

	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}

	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, fixHint)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errors.New("anthropic does not support embeddings, use ollama, openai or gemini")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderGemini:
		return createGeminiEmbedding(settings)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	case domain.AIProviderGemini:
		return createGeminiLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateSearcher creates the online searcher used by research runs.
// Returns nil if search is not configured.
func CreateSearcher(settings *domain.SearchSettings) (driven.OnlineSearcher, error) {
	searcher, _, err := createSearcher(settings)
	return searcher, err
}

// createSearcher also returns the model behind an llm searcher so the
// caller can close it.
func createSearcher(settings *domain.SearchSettings) (driven.OnlineSearcher, driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil, nil
	}

	switch settings.Provider {
	case domain.SearchProviderLLM:
		svc, err := CreateLLMService(&settings.LLM)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w. %s", domain.ErrSearchUnavailable, err, fixHint)
		}
		return llmsearch.NewSearcher(svc), svc, nil

	case domain.SearchProviderGoogle:
		searcher, err := googlesearch.NewSearcher(context.Background(), googlesearch.Config{
			APIKey:   settings.APIKey,
			EngineID: settings.EngineID,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w. %s", domain.ErrSearchUnavailable, err, fixHint)
		}
		return searcher, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported search provider: %s", settings.Provider)
	}
}

// CreateTranscriber creates the audio transcriber.
// Returns nil if transcription is not configured.
func CreateTranscriber(settings *domain.TranscriptionSettings) (driven.Transcriber, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	t, err := openaitranscribe.NewTranscriber(openaitranscribe.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrTranscriptionUnavailable, err, fixHint)
	}
	return t, nil
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        domain.EmbeddingDimensions()[settings.Model],
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}

// createGeminiEmbedding creates a Gemini embedding service.
func createGeminiEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = geminiembed.DefaultDimensions
	}

	return geminiembed.NewEmbeddingService(context.Background(), geminiembed.Config{
		APIKey:            settings.APIKey,
		Model:             settings.Model,
		Dimensions:        dimensions,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createGeminiLLM creates a Gemini LLM service.
func createGeminiLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return geminillm.NewLLMService(context.Background(), geminillm.Config{
		APIKey: settings.APIKey,
		Model:  settings.Model,
	})
}
