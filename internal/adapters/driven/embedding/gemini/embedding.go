// Package gemini provides an embedding service adapter for Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/custodia-labs/deepsearch/internal/adapters/driven/embedding"
	"github.com/custodia-labs/deepsearch/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const providerName = "gemini"

// Default configuration values.
const (
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string

	// Dimensions is the embedding vector size.
	Dimensions int

	// MaxInputChars truncates each input (default: embedding.DefaultMaxInputChars).
	MaxInputChars int

	// RequestsPerSecond paces calls. Zero disables pacing.
	RequestsPerSecond float64
}

// batchEmbedder performs one batched embedding call.
type batchEmbedder interface {
	embed(ctx context.Context, texts []string) ([][]float32, error)
	close() error
}

// EmbeddingService generates embeddings using the Gemini API.
type EmbeddingService struct {
	backend       batchEmbedder
	limiter       *httpclient.Limiter
	model         string
	dimensions    int
	maxInputChars int
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is required", domain.ErrInvalidInput)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, httpclient.Unavailable(providerName, "create client", err)
	}

	return newEmbeddingService(&genaiEmbedder{
		client: client,
		model:  client.EmbeddingModel(cfg.Model),
	}, cfg), nil
}

func newEmbeddingService(backend batchEmbedder, cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = embedding.DefaultMaxInputChars
	}
	return &EmbeddingService{
		backend:       backend,
		limiter:       httpclient.NewLimiter(cfg.RequestsPerSecond),
		model:         cfg.Model,
		dimensions:    cfg.Dimensions,
		maxInputChars: cfg.MaxInputChars,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds all texts in a single BatchEmbedContents call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	inputs, err := embedding.Prepare(texts, s.maxInputChars)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	vectors, err := s.backend.embed(ctx, inputs)
	if err != nil {
		return nil, httpclient.FromGoogleAPI(providerName, "embed", err)
	}

	items := make([]embedding.Item, len(vectors))
	for i, vec := range vectors {
		values := make([]float64, len(vec))
		for j, v := range vec {
			values[j] = float64(v)
		}
		items[i] = embedding.Item{Index: i, Vector: values}
	}

	logger.Debug("gemini: embedded %d texts in %v", len(inputs), time.Since(start))
	return embedding.Align(providerName, len(inputs), items)
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a single short probe to validate the key and model.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.EmbedBatch(ctx, []string{"ping"})
	return err
}

// Close releases the underlying client.
func (s *EmbeddingService) Close() error {
	return s.backend.close()
}

// genaiEmbedder is the batchEmbedder backed by the generative-ai-go client.
type genaiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func (g *genaiEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	batch := g.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := g.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		if e == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, e.Values)
	}
	return out, nil
}

func (g *genaiEmbedder) close() error {
	return g.client.Close()
}
