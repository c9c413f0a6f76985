package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

func resetAskFlags() {
	askTopK = domain.DefaultTopK
	askDocs = nil
	askSources = false
}

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
	assert.Equal(t, "Answer a question from your documents", askCmd.Short)
}

func TestAskCmd_PrintsAnswer(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	out, err := executeCommand(t, "ask", "what is the answer?")

	require.NoError(t, err)
	assert.Contains(t, out, "The answer is 42.")
	assert.NotContains(t, out, "Sources:")
}

func TestAskCmd_WithSources(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer resetAskFlags()

	var gotOpts driving.AskOptions
	ts.ask.AskFunc = func(ctx context.Context, q string, opts driving.AskOptions) (*driving.Answer, error) {
		gotOpts = opts
		return (&mockAskService{}).Ask(ctx, q, opts)
	}

	out, err := executeCommand(t, "ask", "--sources", "-k", "8", "--doc", "doc-1", "question")

	require.NoError(t, err)
	assert.Equal(t, 8, gotOpts.TopK)
	assert.Equal(t, []string{"doc-1"}, gotOpts.Filter.DocumentIDs)
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[1] Test Document 1 (0.87)")
}

func TestAskCmd_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()
		askService = nil

		_, err := executeCommand(t, "ask", "q")

		assert.EqualError(t, err, "ask service not configured")
	})

	t.Run("llm unavailable", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ask.AskFunc = func(context.Context, string, driving.AskOptions) (*driving.Answer, error) {
			return nil, domain.ErrLLMUnavailable
		}

		_, err := executeCommand(t, "ask", "q")

		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}
