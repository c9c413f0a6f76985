package doccontent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// MockDocumentService serves documents from a map.
type MockDocumentService struct {
	docs map[string]*domain.Document
}

func (m *MockDocumentService) List(context.Context) ([]domain.Document, error) { return nil, nil }

func (m *MockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if doc, ok := m.docs[id]; ok {
		return doc, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
}

func (m *MockDocumentService) GetDetails(context.Context, string) (*driving.DocumentDetails, error) {
	return nil, nil
}

func (m *MockDocumentService) Delete(context.Context, string) error { return nil }

func (m *MockDocumentService) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, nil
}

func longText(lines int) string {
	parts := make([]string, lines)
	for i := range parts {
		parts[i] = fmt.Sprintf("line %d", i+1)
	}
	return strings.Join(parts, "\n")
}

func newService() *MockDocumentService {
	return &MockDocumentService{docs: map[string]*domain.Document{
		"d1": {ID: "d1", Name: "notes.md", RawText: "alpha beta gamma"},
		"d2": {ID: "d2", Name: "long.txt", RawText: longText(100)},
	}}
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.Nil(t, v.Document())
	assert.Nil(t, v.Init())
	assert.Contains(t, v.View(), "Document Content")
}

func TestView_SetDocumentLoadsFullText(t *testing.T) {
	v := NewView(nil, newService())
	v.SetDimensions(80, 24)

	// The summary passed in has no text; the view fetches it.
	cmd := v.SetDocument(&domain.Document{ID: "d1", Name: "notes.md"}, messages.ViewSearch)
	assert.Contains(t, v.View(), "Loading content...")

	v.Update(cmd())

	assert.NoError(t, v.Err())
	assert.Equal(t, "alpha beta gamma", v.Content())
	view := v.View()
	assert.Contains(t, view, "notes.md")
	assert.Contains(t, view, "alpha beta gamma")
}

func TestView_LoadError(t *testing.T) {
	v := NewView(nil, newService())
	v.SetDimensions(80, 24)

	cmd := v.SetDocument(&domain.Document{ID: "missing"}, messages.ViewDocuments)
	v.Update(cmd())

	assert.ErrorIs(t, v.Err(), domain.ErrNotFound)
	assert.Contains(t, v.View(), "Error:")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)

	msg := v.SetDocument(&domain.Document{ID: "d1"}, messages.ViewDocuments)()

	loaded, ok := msg.(messages.DocumentContentLoaded)
	require.True(t, ok)
	assert.ErrorIs(t, loaded.Err, ErrNoDocumentService)
}

func TestView_EmptyContent(t *testing.T) {
	v := NewView(nil, newService())
	v.SetDimensions(80, 24)
	v.SetDocument(&domain.Document{ID: "d1"}, messages.ViewDocuments)

	v.Update(messages.DocumentContentLoaded{DocumentID: "d1"})

	assert.Contains(t, v.View(), "(No content)")
}

func TestView_IgnoresOtherDocuments(t *testing.T) {
	v := NewView(nil, newService())
	v.SetDimensions(80, 24)
	v.SetDocument(&domain.Document{ID: "d1"}, messages.ViewDocuments)

	v.Update(messages.DocumentContentLoaded{DocumentID: "d2", Content: "stale"})

	assert.Empty(t, v.Content())
}

func TestView_Scrolling(t *testing.T) {
	v := NewView(nil, newService())
	v.SetDimensions(80, 24)
	v.Update(v.SetDocument(&domain.Document{ID: "d2"}, messages.ViewDocuments)())

	assert.Contains(t, v.View(), "line 1")
	assert.NotContains(t, v.View(), "line 100")
	assert.Equal(t, 0, v.viewport.YOffset)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	assert.True(t, v.viewport.AtBottom())
	assert.Contains(t, v.View(), "line 100")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	assert.True(t, v.viewport.AtTop())

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.viewport.YOffset)
}

func TestView_EscReturnsToCaller(t *testing.T) {
	v := NewView(nil, newService())
	v.SetDocument(&domain.Document{ID: "d1"}, messages.ViewSearch)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())
}
