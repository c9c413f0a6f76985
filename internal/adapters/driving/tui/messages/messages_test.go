package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewMenu, "menu"},
		{ViewSearch, "search"},
		{ViewResearch, "research"},
		{ViewDocuments, "documents"},
		{ViewDocContent, "doc_content"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.view.String())
		})
	}
}

func TestViewType_Distinct(t *testing.T) {
	seen := make(map[ViewType]bool)
	for _, v := range []ViewType{ViewMenu, ViewSearch, ViewResearch, ViewDocuments, ViewDocContent, ViewHelp} {
		assert.False(t, seen[v], "duplicate view type %d", v)
		seen[v] = true
	}
}

func TestSearchCompleted(t *testing.T) {
	t.Run("with results", func(t *testing.T) {
		msg := SearchCompleted{
			Query: "vector",
			Results: []domain.SearchResult{
				{Document: domain.Document{Name: "a.txt"}, Score: 0.9},
				{Document: domain.Document{Name: "b.txt"}, Score: 0.8},
			},
		}
		require.Len(t, msg.Results, 2)
		assert.Equal(t, "a.txt", msg.Results[0].Document.Name)
		assert.NoError(t, msg.Err)
	})

	t.Run("with error", func(t *testing.T) {
		msg := SearchCompleted{Err: domain.ErrEmbeddingUnavailable}
		assert.Nil(t, msg.Results)
		assert.ErrorIs(t, msg.Err, domain.ErrEmbeddingUnavailable)
	})
}

func TestResearchMessages(t *testing.T) {
	progress := ResearchProgress{
		Run: 2,
		Event: domain.ProgressEvent{
			Status:           domain.ResearchSearching,
			Phase:            domain.PhaseSearch,
			SubQuestionIndex: 1,
			SubQuestionTotal: 3,
		},
	}
	assert.Equal(t, 2, progress.Run)
	assert.Equal(t, domain.PhaseSearch, progress.Event.Phase)

	failed := ResearchCompleted{Run: 2, Err: errors.New("boom")}
	assert.Nil(t, failed.Query)
	assert.EqualError(t, failed.Err, "boom")
}

func TestDocumentMessages(t *testing.T) {
	loaded := DocumentsLoaded{Documents: []domain.Document{{ID: "d1"}}}
	assert.Len(t, loaded.Documents, 1)

	details := DocumentDetailsLoaded{
		DocumentID: "d1",
		Details:    &driving.DocumentDetails{ID: "d1", ChunkCount: 4},
	}
	assert.Equal(t, 4, details.Details.ChunkCount)

	deleted := DocumentDeleted{DocumentID: "d1", Err: domain.ErrNotFound}
	assert.ErrorIs(t, deleted.Err, domain.ErrNotFound)
}
