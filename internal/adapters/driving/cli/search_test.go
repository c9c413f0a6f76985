package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

func resetSearchFlags() {
	searchTopK = domain.DefaultTopK
	searchJSON = false
	searchContext = false
	searchDocs = nil
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
	assert.Equal(t, "Search indexed documents", searchCmd.Short)
	assert.Contains(t, searchCmd.Long, "cosine similarity")
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := executeCommand(t, "search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasTopKFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag, "top-k flag should exist")
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
}

func TestSearchCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	searchService = nil

	_, err := executeCommand(t, "search", "query")

	assert.EqualError(t, err, "search service not configured")
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer resetSearchFlags()

	out, err := executeCommand(t, "search", "test query")

	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] Test Document 1 (0.87)")
	assert.Contains(t, out, "Source: /notes/test.md")
	assert.Contains(t, out, "matching chunk text")
}

func TestSearchCmd_PassesTopKAndFilter(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer resetSearchFlags()

	var gotQuery string
	var gotTopK int
	var gotFilter domain.SearchFilter
	ts.search.SearchFunc = func(_ context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error) {
		gotQuery, gotTopK, gotFilter = query, topK, filter
		return nil, nil
	}

	out, err := executeCommand(t, "search", "-k", "3", "--doc", "a,b", "vectors")

	require.NoError(t, err)
	assert.Equal(t, "vectors", gotQuery)
	assert.Equal(t, 3, gotTopK)
	assert.Equal(t, []string{"a", "b"}, gotFilter.DocumentIDs)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer resetSearchFlags()

	out, err := executeCommand(t, "search", "--json", "test query")
	require.NoError(t, err)

	var results []searchResultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, "doc-1", results[0].DocumentID)
	assert.Equal(t, "doc-1_0", results[0].ChunkID)
	assert.NotContains(t, out, "embedding")
}

func TestSearchCmd_ContextOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer resetSearchFlags()

	out, err := executeCommand(t, "search", "--context", "test query")

	require.NoError(t, err)
	assert.Contains(t, out, "[Source: Test Document 1]")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer resetSearchFlags()
	ts.search.SearchFunc = func(context.Context, string, int, domain.SearchFilter) ([]domain.SearchResult, error) {
		return nil, domain.ErrEmbeddingUnavailable
	}

	_, err := executeCommand(t, "search", "query")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "search failed")
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"short", "hello world", 20, "hello world"},
		{"collapses whitespace", "a\n\n  b\tc", 20, "a b c"},
		{"truncates", "abcdefghij", 4, "abcd..."},
		{"multibyte", "héllo wörld", 5, "héllo..."},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snippet(tt.text, tt.n))
		})
	}
}
