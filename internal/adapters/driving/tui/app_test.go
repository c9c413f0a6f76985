package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	if ports == nil {
		ports = NewPorts(&MockSearchService{}, &MockResearchService{}, &MockDocumentService{})
	}
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(a *App, s string) {
	for _, r := range s {
		a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// drain runs cmd and feeds the application messages it yields back into
// the app until none are left. Timer and cursor messages are dropped.
func drain(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "message loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case messages.ViewChanged, messages.SearchCompleted, messages.ResearchProgress,
			messages.ResearchCompleted, messages.DocumentSelected, messages.DocumentsLoaded,
			messages.DocumentContentLoaded, messages.DocumentDetailsLoaded,
			messages.DocumentDeleted, messages.ErrorOccurred:
			_, c := a.Update(msg)
			queue = append(queue, c)
		}
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(NewPorts(&MockSearchService{}, nil, nil))

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingSearchService)
}

func TestApp_WithContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	app := newTestApp(t, nil)

	assert.Same(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, nil)

	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(NewPorts(&MockSearchService{}, nil, nil))
	require.NoError(t, err)

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.width)
	assert.Equal(t, 50, app.height)
	assert.Contains(t, app.View(), "Search documents")
}

func TestApp_MenuNavigation(t *testing.T) {
	tests := []struct {
		name  string
		downs int
		want  messages.ViewType
	}{
		{"search", 0, messages.ViewSearch},
		{"research", 1, messages.ViewResearch},
		{"documents", 2, messages.ViewDocuments},
		{"help", 3, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, nil)
			for range tt.downs {
				app.Update(tea.KeyMsg{Type: tea.KeyDown})
			}

			_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
			drain(t, app, cmd)

			assert.Equal(t, tt.want, app.CurrentView())
		})
	}
}

func TestApp_SearchFlow(t *testing.T) {
	var gotTopK int
	search := &MockSearchService{
		SearchFunc: func(_ context.Context, query string, topK int, _ domain.SearchFilter) ([]domain.SearchResult, error) {
			gotTopK = topK
			return []domain.SearchResult{
				{Document: domain.Document{ID: "d1", Name: "notes.md"}, Chunk: domain.Chunk{Content: query}, Score: 0.9},
			}, nil
		},
	}
	docs := &MockDocumentService{
		GetFunc: func(_ context.Context, id string) (*domain.Document, error) {
			return &domain.Document{ID: id, Name: "notes.md", RawText: "full text of notes"}, nil
		},
	}
	app := newTestApp(t, NewPorts(search, nil, docs)).WithTopK(3)

	drain(t, app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} })
	typeText(app, "vectors")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, app, cmd)

	assert.Equal(t, "vectors", app.Query())
	require.Len(t, app.Results(), 1)
	assert.Equal(t, 3, gotTopK)
	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "notes.md")

	// Opening a result shows its content and esc returns to the results.
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, app, cmd)
	assert.Equal(t, messages.ViewDocContent, app.CurrentView())
	assert.Contains(t, app.View(), "full text of notes")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(t, app, cmd)
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
}

func TestApp_SearchError(t *testing.T) {
	search := &MockSearchService{
		SearchFunc: func(context.Context, string, int, domain.SearchFilter) ([]domain.SearchResult, error) {
			return nil, domain.ErrEmbeddingUnavailable
		},
	}
	app := newTestApp(t, NewPorts(search, nil, nil))

	drain(t, app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} })
	typeText(app, "q")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, app, cmd)

	assert.ErrorIs(t, app.Err(), domain.ErrEmbeddingUnavailable)
	assert.Contains(t, app.View(), "Error:")
}

func TestApp_ResearchFlow(t *testing.T) {
	research := &MockResearchService{
		ResearchFunc: func(_ context.Context, question string, events chan<- domain.ProgressEvent) (*domain.ResearchQuery, error) {
			events <- domain.ProgressEvent{Phase: domain.PhaseDecompose, Message: "Decomposed into 1 sub-question"}
			events <- domain.ProgressEvent{Phase: domain.PhaseSearch, SubQuestionIndex: 1, SubQuestionTotal: 1, Message: "Searched"}
			return &domain.ResearchQuery{
				Question:  question,
				Synthesis: "Rust is memory safe [1].",
				Citations: []domain.Citation{{ID: 1, Title: "Rust Book", URL: "https://doc.rust-lang.org"}},
				Status:    domain.ResearchComplete,
			}, nil
		},
	}
	app := newTestApp(t, NewPorts(&MockSearchService{}, research, nil))

	drain(t, app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewResearch} })
	require.Equal(t, messages.ViewResearch, app.CurrentView())

	typeText(app, "Is Rust safe?")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, app, cmd)

	require.NotNil(t, app.researchView.Query())
	assert.False(t, app.researchView.Running())
	assert.Len(t, app.researchView.Log(), 2)
	view := app.View()
	assert.Contains(t, view, "Rust is memory safe")
	assert.Contains(t, view, "Rust Book")
}

func TestApp_ResearchProgressWhileAway(t *testing.T) {
	app := newTestApp(t, nil)

	// Completion of a run the view does not know about is ignored
	// regardless of the active view.
	_, cmd := app.Update(messages.ResearchCompleted{Run: 99})

	assert.Nil(t, cmd)
	assert.Nil(t, app.researchView.Query())
}

func TestApp_DocumentsFlow(t *testing.T) {
	docs := &MockDocumentService{
		ListFunc: func(context.Context) ([]domain.Document, error) {
			return []domain.Document{{ID: "d1", Name: "paper.pdf", SourceType: domain.SourceTypePDF}}, nil
		},
		GetFunc: func(_ context.Context, id string) (*domain.Document, error) {
			return &domain.Document{ID: id, Name: "paper.pdf", RawText: "abstract"}, nil
		},
	}
	app := newTestApp(t, NewPorts(&MockSearchService{}, nil, docs))

	drain(t, app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} })
	assert.Contains(t, app.View(), "paper.pdf")

	// Enter opens the action menu; the first action shows the content.
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, app, cmd)

	assert.Equal(t, messages.ViewDocContent, app.CurrentView())
	assert.Contains(t, app.View(), "abstract")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(t, app, cmd)
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t, nil)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "ctrl+x")

	app.Update(keyRunes("x"))
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, nil)
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Contains(t, app.View(), "boom")
}

func TestApp_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"quit message", messages.Quit{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, nil)

			_, cmd := app.Update(tt.msg)
			require.NotNil(t, cmd)

			_, ok := cmd().(tea.QuitMsg)
			assert.True(t, ok)
		})
	}
}

func TestApp_MenuQKeyQuits(t *testing.T) {
	app := newTestApp(t, nil)

	_, cmd := app.Update(keyRunes("q"))
	require.NotNil(t, cmd)

	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
