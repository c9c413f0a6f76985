package ai

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/adapters/driven/storage/chromem"
	"github.com/custodia-labs/deepsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/deepsearch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// ollamaServer answers the /api/tags ping with status.
func ollamaServer(t *testing.T, status int) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})

	t.Run("close with all services", func(t *testing.T) {
		result := &InitResult{
			Store: memory.NewVectorStore(),
			EmbeddingService: createOllamaEmbedding(&domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "nomic-embed-text",
			}),
			LLMService: createOllamaLLM(&domain.LLMSettings{
				Provider: domain.AIProviderOllama,
				Model:    "llama3.2",
			}),
		}
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		errContains string
	}{
		{
			name:    "nil settings returns nil",
			wantNil: true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name: "gemini provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderGemini,
				APIKey:   "test-key",
				Model:    "text-embedding-004",
			},
		},
		{
			name: "openai without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantNil: true,
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil:     true,
			errContains: "anthropic does not support embeddings",
		},
		{
			name: "unknown provider returns nil",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			svc.Close()
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
	}{
		{
			name:    "nil settings returns nil",
			wantNil: true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.LLMSettings{},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "llama3.2",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "gpt-4o-mini",
			},
		},
		{
			name: "anthropic provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
				Model:    "claude-3-5-sonnet-latest",
			},
		},
		{
			name: "gemini provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderGemini,
				APIKey:   "test-key",
				Model:    "gemini-1.5-flash",
			},
		},
		{
			name: "anthropic without key is not configured",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAnthropic,
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			svc.Close()
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{})
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("reachable provider", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  ollamaServer(t, http.StatusOK),
			Model:    "nomic-embed-text",
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.Equal(t, 768, svc.Dimensions())
		svc.Close()
	})

	t.Run("unreachable provider", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  ollamaServer(t, http.StatusServiceUnavailable),
			Model:    "nomic-embed-text",
		})
		assert.Nil(t, svc)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "deepsearch config set")
	})

	t.Run("anthropic returns error", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderAnthropic,
			APIKey:   "test-key",
		})
		assert.Nil(t, svc)
		assert.NoError(t, err, "anthropic embeddings are never configured")
	})
}

func TestCreateAndValidateLLMService(t *testing.T) {
	t.Run("reachable provider", func(t *testing.T) {
		svc, err := CreateAndValidateLLMService(&domain.LLMSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  ollamaServer(t, http.StatusOK),
			Model:    "llama3.2",
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		svc.Close()
	})

	t.Run("unreachable provider", func(t *testing.T) {
		svc, err := CreateAndValidateLLMService(&domain.LLMSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  ollamaServer(t, http.StatusBadGateway),
			Model:    "llama3.2",
		})
		assert.Nil(t, svc)
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}

func TestValidateEmbeddingConfig(t *testing.T) {
	assert.NoError(t, ValidateEmbeddingConfig(nil))
	assert.NoError(t, ValidateEmbeddingConfig(&domain.EmbeddingSettings{}))

	assert.NoError(t, ValidateEmbeddingConfig(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  ollamaServer(t, http.StatusOK),
	}))
	assert.Error(t, ValidateEmbeddingConfig(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  ollamaServer(t, http.StatusInternalServerError),
	}))
}

func TestValidateLLMConfig(t *testing.T) {
	assert.NoError(t, ValidateLLMConfig(nil))
	assert.NoError(t, ValidateLLMConfig(&domain.LLMSettings{Provider: "unknown", APIKey: "k"}))

	assert.NoError(t, ValidateLLMConfig(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  ollamaServer(t, http.StatusOK),
	}))
	assert.Error(t, ValidateLLMConfig(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  ollamaServer(t, http.StatusInternalServerError),
	}))
}

func TestCreateSearcher(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		searcher, err := CreateSearcher(&domain.SearchSettings{Provider: domain.SearchProviderLLM})
		assert.NoError(t, err)
		assert.Nil(t, searcher)
	})

	t.Run("llm searcher uses its own model", func(t *testing.T) {
		searcher, err := CreateSearcher(&domain.SearchSettings{
			Provider: domain.SearchProviderLLM,
			LLM: domain.LLMSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "gpt-4o-search-preview",
			},
		})
		require.NoError(t, err)
		require.NotNil(t, searcher)
		assert.Equal(t, "llm:gpt-4o-search-preview", searcher.Name())
	})

	t.Run("google searcher", func(t *testing.T) {
		searcher, err := CreateSearcher(&domain.SearchSettings{
			Provider: domain.SearchProviderGoogle,
			APIKey:   "test-key",
			EngineID: "engine",
		})
		require.NoError(t, err)
		require.NotNil(t, searcher)
		assert.Equal(t, "google", searcher.Name())
	})

	t.Run("google without engine is not configured", func(t *testing.T) {
		searcher, err := CreateSearcher(&domain.SearchSettings{
			Provider: domain.SearchProviderGoogle,
			APIKey:   "test-key",
		})
		assert.NoError(t, err)
		assert.Nil(t, searcher)
	})
}

func TestCreateTranscriber(t *testing.T) {
	transcriber, err := CreateTranscriber(&domain.TranscriptionSettings{})
	assert.NoError(t, err)
	assert.Nil(t, transcriber)

	transcriber, err = CreateTranscriber(&domain.TranscriptionSettings{APIKey: "test-key", Model: "whisper-1"})
	require.NoError(t, err)
	assert.NotNil(t, transcriber)
}

func TestCreateVectorStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := CreateVectorStore(&domain.StoreSettings{Backend: domain.StoreBackendMemory}, t.TempDir())
		require.NoError(t, err)
		assert.IsType(t, &memory.VectorStore{}, store)
	})

	t.Run("sqlite is the default", func(t *testing.T) {
		dir := t.TempDir()
		store, err := CreateVectorStore(&domain.StoreSettings{}, dir)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &sqlite.Store{}, store)
		assert.FileExists(t, filepath.Join(dir, sqlite.DatabaseFile))
	})

	t.Run("path overrides data dir", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom")
		store, err := CreateVectorStore(&domain.StoreSettings{
			Backend: domain.StoreBackendSQLite,
			Path:    path,
		}, t.TempDir())
		require.NoError(t, err)
		defer store.Close()
		assert.FileExists(t, filepath.Join(path, sqlite.DatabaseFile))
	})

	t.Run("chromem", func(t *testing.T) {
		store, err := CreateVectorStore(&domain.StoreSettings{Backend: domain.StoreBackendChromem}, t.TempDir())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &chromem.Store{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := CreateVectorStore(&domain.StoreSettings{Backend: "redis"}, t.TempDir())
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestInitialise(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Store.Backend = domain.StoreBackendMemory
	settings.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  ollamaServer(t, http.StatusOK),
		Model:    "nomic-embed-text",
	}
	settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  ollamaServer(t, http.StatusServiceUnavailable),
		Model:    "llama3.2",
	}

	result, err := Initialise(&settings, t.TempDir(), nil)
	require.NoError(t, err)
	defer result.Close()

	assert.NotNil(t, result.Store)
	assert.NotNil(t, result.EmbeddingService)
	assert.Nil(t, result.LLMService)
	assert.Nil(t, result.Searcher)
	assert.Nil(t, result.Transcriber)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "deepsearch config set")
}

func TestInitialise_StoreFailure(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Store.Backend = "redis"

	_, err := Initialise(&settings, t.TempDir(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
