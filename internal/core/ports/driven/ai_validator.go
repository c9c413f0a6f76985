package driven

import "github.com/custodia-labs/deepsearch/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations connect to the provider to verify settings work.
type AIConfigValidator interface {
	// ValidateEmbedding checks that the embedding provider is reachable.
	// Returns nil when the settings are unconfigured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM checks that the LLM provider is reachable.
	// Returns nil when the settings are unconfigured.
	ValidateLLM(config *domain.LLMSettings) error
}
