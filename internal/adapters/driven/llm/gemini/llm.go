// Package gemini provides an LLM service adapter for Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/custodia-labs/deepsearch/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const providerName = "gemini"

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the LLM model to use (default: gemini-1.5-flash).
	Model string

	// RequestsPerSecond paces calls. Zero disables pacing.
	RequestsPerSecond float64
}

// turn is one prior message of a conversation.
type turn struct {
	role string // "user" or "model"
	text string
}

// request is a provider-neutral generation call.
type request struct {
	system      string
	history     []turn
	prompt      string
	maxTokens   int
	temperature float64
	stop        []string
}

// generator performs one generation call.
type generator interface {
	generate(ctx context.Context, req request) (string, error)
	close() error
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	backend generator
	limiter *httpclient.Limiter
	model   string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
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
	return newLLMService(&genaiGenerator{client: client, model: cfg.Model}, cfg), nil
}

func newLLMService(backend generator, cfg Config) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &LLMService{
		backend: backend,
		limiter: httpclient.NewLimiter(cfg.RequestsPerSecond),
		model:   cfg.Model,
	}
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.send(ctx, request{
		prompt:      prompt,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		stop:        opts.StopWords,
	})
}

// Chat conducts a multi-turn conversation.
// System messages become the system instruction and the final message must
// come from the user.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var system []string
	var convo []driven.ChatMessage
	for _, msg := range messages {
		if msg.Role == driven.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		convo = append(convo, msg)
	}

	if len(convo) == 0 || convo[len(convo)-1].Role != driven.RoleUser {
		return "", fmt.Errorf("%w: conversation must end with a user message", domain.ErrInvalidInput)
	}

	history := make([]turn, 0, len(convo)-1)
	for _, msg := range convo[:len(convo)-1] {
		role := "user"
		if msg.Role == driven.RoleAssistant {
			role = "model"
		}
		history = append(history, turn{role: role, text: msg.Content})
	}

	return s.send(ctx, request{
		system:      strings.Join(system, "\n\n"),
		history:     history,
		prompt:      convo[len(convo)-1].Content,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	})
}

func (s *LLMService) send(ctx context.Context, req request) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	text, err := s.backend.generate(ctx, req)
	if err != nil {
		return "", httpclient.FromGoogleAPI(providerName, "generate", err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: gemini: no text candidates returned", domain.ErrProviderUnavailable)
	}

	logger.Debug("gemini: %s completion in %v", s.model, time.Since(start))
	return text, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping runs a minimal generation to validate the key and model.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.send(ctx, request{prompt: "ping", maxTokens: 1})
	return err
}

// Close releases the underlying client.
func (s *LLMService) Close() error {
	return s.backend.close()
}

// genaiGenerator is the generator backed by the generative-ai-go client.
type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) generate(ctx context.Context, req request) (string, error) {
	// A fresh model per call keeps per-request settings from leaking.
	model := g.client.GenerativeModel(g.model)
	if req.maxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.maxTokens))
	}
	if req.temperature > 0 {
		model.SetTemperature(float32(req.temperature))
	}
	if len(req.stop) > 0 {
		model.StopSequences = req.stop
	}
	if req.system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.system)}}
	}

	var resp *genai.GenerateContentResponse
	var err error
	if len(req.history) == 0 {
		resp, err = model.GenerateContent(ctx, genai.Text(req.prompt))
	} else {
		session := model.StartChat()
		for _, t := range req.history {
			session.History = append(session.History, &genai.Content{
				Role:  t.role,
				Parts: []genai.Part{genai.Text(t.text)},
			})
		}
		resp, err = session.SendMessage(ctx, genai.Text(req.prompt))
	}
	if err != nil {
		return "", err
	}

	var parts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				parts = append(parts, string(text))
			}
		}
		// Only the first candidate with content is used.
		if len(parts) > 0 {
			break
		}
	}
	return strings.Join(parts, ""), nil
}

func (g *genaiGenerator) close() error {
	return g.client.Close()
}
