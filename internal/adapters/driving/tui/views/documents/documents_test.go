package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	ListFunc       func(ctx context.Context) ([]domain.Document, error)
	GetDetailsFunc func(ctx context.Context, documentID string) (*driving.DocumentDetails, error)
	DeleteFunc     func(ctx context.Context, documentID string) error
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []domain.Document{}, nil
}

func (m *MockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	if m.GetDetailsFunc != nil {
		return m.GetDetailsFunc(ctx, documentID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) Delete(ctx context.Context, documentID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, documentID)
	}
	return nil
}

func (m *MockDocumentService) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, nil
}

func testDocuments() []domain.Document {
	return []domain.Document{
		{ID: "d1", Name: "notes.md", SourceType: domain.SourceTypeMarkdown, Metadata: domain.DocumentMetadata{WordCount: 120}},
		{ID: "d2", Name: "paper.pdf", SourceType: domain.SourceTypePDF, Metadata: domain.DocumentMetadata{WordCount: 4200}},
		{ID: "d3", Name: "talk.srt", SourceType: domain.SourceTypeSubtitle},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// loaded returns a view with the test documents already listed.
func loaded(t *testing.T, svc *MockDocumentService) *View {
	t.Helper()
	if svc.ListFunc == nil {
		svc.ListFunc = func(context.Context) ([]domain.Document, error) { return testDocuments(), nil }
	}
	v := NewView(styles.DefaultStyles(), svc)
	v.SetDimensions(100, 40)
	cmd := v.Init()
	require.NotNil(t, cmd)
	v.Update(cmd())
	require.Len(t, v.Documents(), 3)
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.Empty(t, v.Documents())
	assert.Nil(t, v.SelectedDocument())
}

func TestView_InitLoadsDocuments(t *testing.T) {
	v := NewView(nil, &MockDocumentService{
		ListFunc: func(context.Context) ([]domain.Document, error) { return testDocuments(), nil },
	})
	v.SetDimensions(100, 40)

	cmd := v.Init()
	assert.Contains(t, v.View(), "Loading documents...")

	v.Update(cmd())

	view := v.View()
	assert.Contains(t, view, "Documents (3)")
	assert.Contains(t, view, "notes.md")
	assert.Contains(t, view, "4200 words")
}

func TestView_LoadError(t *testing.T) {
	v := NewView(nil, &MockDocumentService{
		ListFunc: func(context.Context) ([]domain.Document, error) { return nil, domain.ErrVectorIndexUnavailable },
	})
	v.SetDimensions(100, 40)

	v.Update(v.Init()())

	assert.ErrorIs(t, v.Err(), domain.ErrVectorIndexUnavailable)
	assert.Contains(t, v.View(), "Error:")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)

	msg := v.Init()()

	loaded, ok := msg.(messages.DocumentsLoaded)
	require.True(t, ok)
	assert.ErrorIs(t, loaded.Err, ErrNoDocumentService)
}

func TestView_Empty(t *testing.T) {
	v := NewView(nil, &MockDocumentService{})
	v.SetDimensions(100, 40)

	v.Update(v.Init()())

	assert.Contains(t, v.View(), "deepsearch ingest")
}

func TestView_Navigation(t *testing.T) {
	v := loaded(t, &MockDocumentService{})

	v.Update(keyMsg("j"))
	v.Update(keyMsg("j"))
	v.Update(keyMsg("j"))
	assert.Equal(t, 2, v.SelectedIndex())

	v.Update(keyMsg("k"))
	assert.Equal(t, 1, v.SelectedIndex())
	assert.Equal(t, "paper.pdf", v.SelectedDocument().Name)
}

func TestView_ShowContent(t *testing.T) {
	v := loaded(t, &MockDocumentService{})
	v.Update(keyMsg("j"))

	v.Update(keyMsg("enter"))
	require.True(t, v.IsShowingMenu())
	assert.Contains(t, v.View(), "Actions for: paper.pdf")

	_, cmd := v.Update(keyMsg("enter"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "d2", msg.Document.ID)
	assert.False(t, v.IsShowingMenu())
}

func TestView_ShowDetails(t *testing.T) {
	created := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	v := loaded(t, &MockDocumentService{
		GetDetailsFunc: func(_ context.Context, id string) (*driving.DocumentDetails, error) {
			return &driving.DocumentDetails{
				ID: id, Name: "notes.md", SourceType: domain.SourceTypeMarkdown,
				Source: "/tmp/notes.md", WordCount: 120, ChunkCount: 2, CreatedAt: created,
			}, nil
		},
	})

	v.Update(keyMsg("enter"))
	v.Update(keyMsg("j"))
	_, cmd := v.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	v.Update(cmd())

	require.NotNil(t, v.Details())
	view := v.View()
	assert.Contains(t, view, "/tmp/notes.md")
	assert.Contains(t, view, "2024-06-01 09:30")
	assert.NotContains(t, view, "Pages")

	// Esc closes the details panel before leaving the view.
	_, cmd = v.Update(keyMsg("esc"))
	assert.Nil(t, cmd)
	assert.Nil(t, v.Details())
}

func TestView_DeleteWithConfirmation(t *testing.T) {
	var deleted string
	calls := 0
	svc := &MockDocumentService{
		DeleteFunc: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc.ListFunc = func(context.Context) ([]domain.Document, error) {
		calls++
		if calls > 1 {
			return testDocuments()[1:], nil
		}
		return testDocuments(), nil
	}
	v := loaded(t, svc)

	v.Update(keyMsg("d"))
	require.True(t, v.IsConfirming())
	assert.Contains(t, v.View(), "Delete notes.md and its chunks? [y/N]")

	_, cmd := v.Update(keyMsg("y"))
	require.NotNil(t, cmd)
	_, reload := v.Update(cmd())
	require.NotNil(t, reload)
	v.Update(reload())

	assert.Equal(t, "d1", deleted)
	assert.Len(t, v.Documents(), 2)
}

func TestView_DeleteDeclined(t *testing.T) {
	v := loaded(t, &MockDocumentService{
		DeleteFunc: func(context.Context, string) error {
			t.Fatal("delete must not run")
			return nil
		},
	})

	v.Update(keyMsg("d"))
	_, cmd := v.Update(keyMsg("n"))

	assert.Nil(t, cmd)
	assert.False(t, v.IsConfirming())
}

func TestView_DeleteError(t *testing.T) {
	v := loaded(t, &MockDocumentService{})

	v.Update(messages.DocumentDeleted{DocumentID: "d1", Err: errors.New("locked")})

	assert.EqualError(t, v.Err(), "locked")
}

func TestView_MenuCancel(t *testing.T) {
	v := loaded(t, &MockDocumentService{})

	v.Update(keyMsg("enter"))
	v.Update(keyMsg("j"))
	v.Update(keyMsg("j"))
	v.Update(keyMsg("j"))
	v.Update(keyMsg("j"))
	assert.Equal(t, ActionCancel, v.menuSelected)

	_, cmd := v.Update(keyMsg("enter"))
	assert.Nil(t, cmd)
	assert.False(t, v.IsShowingMenu())
}

func TestView_EscReturnsToMenu(t *testing.T) {
	v := loaded(t, &MockDocumentService{})

	_, cmd := v.Update(keyMsg("esc"))
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_ScrollIndicator(t *testing.T) {
	v := loaded(t, &MockDocumentService{})
	v.SetDimensions(100, 10) // two rows visible

	v.Update(keyMsg("j"))
	v.Update(keyMsg("j"))

	assert.Contains(t, v.View(), "[2-3 of 3]")
}
