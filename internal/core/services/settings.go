package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keySearchProvider  = "search.provider"
	keySearchLLM       = "search.llm_provider"
	keySearchModel     = "search.model"
	keySearchBaseURL   = "search.base_url"
	keySearchAPIKey    = "search.api_key"
	keySearchEngineID  = "search.engine_id"
	keyTranscribeModel = "transcription.model"
	keyTranscribeURL   = "transcription.base_url"
	keyTranscribeKey   = "transcription.api_key"
	keyChunkSize       = "chunking.chunk_size"
	keyChunkOverlap    = "chunking.overlap"
	keyChunkMin        = "chunking.min_chunk_size"
	keyStoreBackend    = "store.backend"
	keyStorePath       = "store.path"
	keyResearchMaxSubQ = "research.max_sub_questions"
	keyResearchFail    = "research.fail_fast"
	keyResearchTimeout = "research.timeout_seconds"
)

// Environment variables consulted for API keys.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvAnthropicKey   = "ANTHROPIC_API_KEY"
	EnvGeminiKey      = "GEMINI_API_KEY"
	EnvGoogleSearch   = "GOOGLE_SEARCH_API_KEY"
	EnvGoogleEngineID = "GOOGLE_SEARCH_ENGINE_ID"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

type keySpec struct {
	kind     valueKind
	validate func(string) error
}

func oneOf(valid func(string) bool, what string) func(string) error {
	return func(v string) error {
		if !valid(v) {
			return fmt.Errorf("%w: unknown %s %q", domain.ErrInvalidInput, what, v)
		}
		return nil
	}
}

var (
	validAI      = oneOf(func(v string) bool { return domain.AIProvider(v).IsValid() }, "provider")
	validSearch  = oneOf(func(v string) bool { return domain.SearchProvider(v).IsValid() }, "search provider")
	validBackend = oneOf(func(v string) bool { return domain.StoreBackend(v).IsValid() }, "store backend")
)

var keySpecs = map[string]keySpec{
	keyEmbedProvider:   {kind: kindString, validate: validAI},
	keyEmbedModel:      {kind: kindString},
	keyEmbedBaseURL:    {kind: kindString},
	keyEmbedAPIKey:     {kind: kindString},
	keyEmbedRPS:        {kind: kindFloat},
	keyLLMProvider:     {kind: kindString, validate: validAI},
	keyLLMModel:        {kind: kindString},
	keyLLMBaseURL:      {kind: kindString},
	keyLLMAPIKey:       {kind: kindString},
	keySearchProvider:  {kind: kindString, validate: validSearch},
	keySearchLLM:       {kind: kindString, validate: validAI},
	keySearchModel:     {kind: kindString},
	keySearchBaseURL:   {kind: kindString},
	keySearchAPIKey:    {kind: kindString},
	keySearchEngineID:  {kind: kindString},
	keyTranscribeModel: {kind: kindString},
	keyTranscribeURL:   {kind: kindString},
	keyTranscribeKey:   {kind: kindString},
	keyChunkSize:       {kind: kindInt},
	keyChunkOverlap:    {kind: kindInt},
	keyChunkMin:        {kind: kindInt},
	keyStoreBackend:    {kind: kindString, validate: validBackend},
	keyStorePath:       {kind: kindString},
	keyResearchMaxSubQ: {kind: kindInt},
	keyResearchFail:    {kind: kindBool},
	keyResearchTimeout: {kind: kindInt},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnv replaces os.LookupEnv, mainly for tests.
func WithEnv(lookup func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		s.lookupEnv = lookup
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	llm := domain.LLMSettings{
		Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
		Model:    s.configStore.GetString(keyLLMModel),
		BaseURL:  s.configStore.GetString(keyLLMBaseURL),
		APIKey:   s.configStore.GetString(keyLLMAPIKey),
	}

	// The search model inherits the general LLM unless given its own provider.
	searchLLM := llm
	if provider := s.getProvider(keySearchLLM, ""); provider != "" && provider != llm.Provider {
		searchLLM = domain.LLMSettings{Provider: provider}
	}
	if v := s.configStore.GetString(keySearchModel); v != "" {
		searchLLM.Model = v
	}
	if v := s.configStore.GetString(keySearchBaseURL); v != "" {
		searchLLM.BaseURL = v
	}

	searchProvider := domain.SearchProvider(s.getString(keySearchProvider, string(defaults.Search.Provider)))
	if !searchProvider.IsValid() {
		searchProvider = defaults.Search.Provider
	}
	searchKey := s.configStore.GetString(keySearchAPIKey)
	if searchProvider == domain.SearchProviderLLM && searchKey != "" {
		searchLLM.APIKey = searchKey
		searchKey = ""
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.configStore.GetString(keyEmbedModel),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
		},
		LLM: llm,
		Search: domain.SearchSettings{
			Provider: searchProvider,
			LLM:      searchLLM,
			APIKey:   searchKey,
			EngineID: s.configStore.GetString(keySearchEngineID),
		},
		Transcription: domain.TranscriptionSettings{
			Model:   s.getString(keyTranscribeModel, defaults.Transcription.Model),
			BaseURL: s.configStore.GetString(keyTranscribeURL),
			APIKey:  s.configStore.GetString(keyTranscribeKey),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize:    s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:      s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
			MinChunkSize: s.getInt(keyChunkMin, defaults.Chunking.MinChunkSize),
		},
		Research: domain.ResearchSettings{
			MaxSubQuestions: s.getInt(keyResearchMaxSubQ, defaults.Research.MaxSubQuestions),
			FailFast:        s.getBool(keyResearchFail, defaults.Research.FailFast),
			TimeoutSeconds:  s.getInt(keyResearchTimeout, defaults.Research.TimeoutSeconds),
		},
		Store: domain.StoreSettings{
			Backend: s.getBackend(defaults.Store.Backend),
			Path:    s.configStore.GetString(keyStorePath),
		},
	}

	s.applyEnv(settings)
	applyDefaultModels(settings)
	return settings, nil
}

// applyEnv fills API keys that were not stored from provider environment variables.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	fill := func(provider domain.AIProvider, key *string) {
		if *key != "" {
			return
		}
		var env string
		switch provider {
		case domain.AIProviderOpenAI:
			env = EnvOpenAIKey
		case domain.AIProviderAnthropic:
			env = EnvAnthropicKey
		case domain.AIProviderGemini:
			env = EnvGeminiKey
		default:
			return
		}
		if v, ok := s.lookupEnv(env); ok {
			*key = v
		}
	}

	fill(settings.Embedding.Provider, &settings.Embedding.APIKey)
	fill(settings.LLM.Provider, &settings.LLM.APIKey)
	fill(settings.Search.LLM.Provider, &settings.Search.LLM.APIKey)
	fill(domain.AIProviderOpenAI, &settings.Transcription.APIKey)

	if settings.Search.APIKey == "" {
		if v, ok := s.lookupEnv(EnvGoogleSearch); ok {
			settings.Search.APIKey = v
		}
	}
	if settings.Search.EngineID == "" {
		if v, ok := s.lookupEnv(EnvGoogleEngineID); ok {
			settings.Search.EngineID = v
		}
	}
}

func applyDefaultModels(settings *domain.AppSettings) {
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.Search.LLM.Model == "" {
		settings.Search.LLM.Model = domain.DefaultLLMModels()[settings.Search.LLM.Provider]
	}
}

// Set validates and stores a single key from its string form.
func (s *SettingsService) Set(key, value string) error {
	spec, ok := keySpecs[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (see 'deepsearch config keys')", domain.ErrInvalidInput, key)
	}

	value = strings.TrimSpace(value)
	if spec.validate != nil && value != "" {
		if err := spec.validate(value); err != nil {
			return err
		}
	}

	var typed any
	switch spec.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	default:
		typed = value
	}

	if key == keyChunkSize || key == keyChunkMin {
		if err := s.checkChunkBounds(key, typed.(int)); err != nil {
			return err
		}
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// checkChunkBounds rejects a chunk size below the minimum chunk size.
func (s *SettingsService) checkChunkBounds(key string, n int) error {
	defaults := domain.DefaultAppSettings().Chunking
	size := effectiveInt(s.getInt(keyChunkSize, defaults.ChunkSize), defaults.ChunkSize)
	minSize := effectiveInt(s.getInt(keyChunkMin, defaults.MinChunkSize), defaults.MinChunkSize)
	if key == keyChunkSize {
		size = effectiveInt(n, defaults.ChunkSize)
	} else {
		minSize = effectiveInt(n, defaults.MinChunkSize)
	}

	if size < minSize {
		return fmt.Errorf("%w: %s (%d) must not be below %s (%d)",
			domain.ErrInvalidInput, keyChunkSize, size, keyChunkMin, minSize)
	}
	return nil
}

// effectiveInt mirrors the chunker, which ignores zero sizes.
func effectiveInt(n, defaultVal int) int {
	if n <= 0 {
		return defaultVal
	}
	return n
}

// Lookup returns the stored string form of a key.
func (s *SettingsService) Lookup(key string) (string, bool, error) {
	if _, ok := keySpecs[key]; !ok {
		return "", false, fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	val, ok := s.configStore.Get(key)
	if !ok {
		return "", false, nil
	}
	return fmt.Sprint(val), true, nil
}

// Keys lists every supported key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(keySpecs))
	for k := range keySpecs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
