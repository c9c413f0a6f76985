package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

type capturedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewEmbeddingService(Config{
		APIKey:        "test-key",
		BaseURL:       server.URL,
		MaxInputChars: 16,
	})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewEmbeddingService(Config{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("defaults", func(t *testing.T) {
		svc, err := NewEmbeddingService(Config{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, svc.ModelName())
		assert.Equal(t, 1536, svc.Dimensions())
	})

	t.Run("large model dimensions", func(t *testing.T) {
		svc, err := NewEmbeddingService(Config{APIKey: "k", Model: "text-embedding-3-large"})
		require.NoError(t, err)
		assert.Equal(t, 3072, svc.Dimensions())
	})
}

func TestEmbedBatch_ReordersByIndex(t *testing.T) {
	var got capturedRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		// Reverse index order.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"index":2,"embedding":[2,2]},
			{"index":1,"embedding":[1,1]},
			{"index":0,"embedding":[0.5,0]}
		],"usage":{"total_tokens":9}}`))
	})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"first\nline", "second", strings.Repeat("z", 40)})
	require.NoError(t, err)

	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0.5, 0}, vectors[0])
	assert.Equal(t, []float32{1, 1}, vectors[1])
	assert.Equal(t, []float32{2, 2}, vectors[2])

	assert.Equal(t, []string{"first line", "second", strings.Repeat("z", 16)}, got.Input)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, 1536, got.Dimensions)
}

func TestEmbed_DelegatesToBatch(t *testing.T) {
	calls := 0
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req capturedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Input, 1)
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.1,0.2,0.3]}]}`))
	})

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 1, calls)
}

func TestEmbedBatch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		header  map[string]string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow"}}`, map[string]string{"Retry-After": "4"}, domain.ErrRateLimited},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"too long"}}`, nil, domain.ErrInvalidInput},
		{"server error", http.StatusInternalServerError, `oops`, nil, domain.ErrProviderUnavailable},
		{"malformed json", http.StatusOK, `{"data":`, nil, domain.ErrProviderUnavailable},
		{"missing items", http.StatusOK, `{"data":[]}`, nil, domain.ErrProviderUnavailable},
		{"error payload", http.StatusOK, `{"error":{"message":"quota"}}`, nil, domain.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := svc.EmbedBatch(context.Background(), []string{"text"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEmbedBatch_RateLimitCarriesRetryAfter(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"text"})
	var rle *domain.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "openai", rle.Provider)
	assert.Equal(t, float64(12), rle.RetryAfter.Seconds())
}

func TestEmbedBatch_InvalidInputNoRequest(t *testing.T) {
	called := false
	svc := newTestService(t, func(_ http.ResponseWriter, _ *http.Request) { called = true })

	_, err := svc.EmbedBatch(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.EmbedBatch(context.Background(), []string{" \n "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, called)
}

func TestEmbedBatch_Unreachable(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestPing(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		})
		assert.NoError(t, svc.Ping(context.Background()))
	})

	t.Run("unauthorised", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrProviderUnavailable)
	})
}
