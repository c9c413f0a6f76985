package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// SearchProvider identifies the backend used for online research searches.
type SearchProvider string

// Available search providers.
const (
	// SearchProviderLLM asks an online-search-capable chat model.
	SearchProviderLLM SearchProvider = "llm"

	// SearchProviderGoogle queries Google Programmable Search.
	SearchProviderGoogle SearchProvider = "google"
)

// IsValid returns true if the search provider is recognised.
func (p SearchProvider) IsValid() bool {
	return p == SearchProviderLLM || p == SearchProviderGoogle
}

// StoreBackend identifies the vector store implementation.
type StoreBackend string

// Available store backends.
const (
	StoreBackendMemory  StoreBackend = "memory"
	StoreBackendSQLite  StoreBackend = "sqlite"
	StoreBackendChromem StoreBackend = "chromem"
)

// IsValid returns true if the store backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendMemory, StoreBackendSQLite, StoreBackendChromem:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// RequestsPerSecond paces calls to the provider. Zero disables pacing.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// SearchSettings holds online search configuration for research runs.
type SearchSettings struct {
	// Provider selects the search backend.
	Provider SearchProvider

	// LLM configures the online-search-capable model (Provider == llm).
	LLM LLMSettings

	// APIKey is the Google API key (Provider == google).
	APIKey string

	// EngineID is the Programmable Search engine ID (Provider == google).
	EngineID string
}

// IsConfigured returns true if the search provider is set up.
func (s SearchSettings) IsConfigured() bool {
	switch s.Provider {
	case SearchProviderLLM:
		return s.LLM.IsConfigured()
	case SearchProviderGoogle:
		return s.APIKey != "" && s.EngineID != ""
	default:
		return false
	}
}

// TranscriptionSettings holds audio transcription configuration.
type TranscriptionSettings struct {
	Model   string
	BaseURL string
	APIKey  string
}

// IsConfigured returns true if transcription is set up.
func (t TranscriptionSettings) IsConfigured() bool {
	return t.APIKey != ""
}

// ChunkingSettings holds chunker configuration in characters.
type ChunkingSettings struct {
	ChunkSize    int
	Overlap      int
	MinChunkSize int
}

// ResearchSettings holds research agent configuration.
type ResearchSettings struct {
	// MaxSubQuestions caps the decomposition.
	MaxSubQuestions int

	// FailFast aborts the run on the first failed sub-question search.
	FailFast bool

	// TimeoutSeconds is the wall-clock budget for one run. Zero means none.
	TimeoutSeconds int
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	Backend StoreBackend

	// Path is the database file or directory for persistent backends.
	Path string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding     EmbeddingSettings
	LLM           LLMSettings
	Search        SearchSettings
	Transcription TranscriptionSettings
	Chunking      ChunkingSettings
	Research      ResearchSettings
	Store         StoreSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured until keys are supplied.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			Provider: SearchProviderLLM,
		},
		Transcription: TranscriptionSettings{
			Model: "whisper-1",
		},
		Chunking: ChunkingSettings{
			ChunkSize:    2000,
			Overlap:      200,
			MinChunkSize: 100,
		},
		Research: ResearchSettings{
			MaxSubQuestions: 5,
			TimeoutSeconds:  300,
		},
		Store: StoreSettings{
			Backend: StoreBackendSQLite,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}
