package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/views/research"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// researchModel runs a single research with live progress and exits
// when it finishes.
type researchModel struct {
	view     *research.View
	question string
}

var _ tea.Model = (*researchModel)(nil)

func newResearchModel(ctx context.Context, svc driving.ResearchService, question string) *researchModel {
	return &researchModel{
		view:     research.NewView(nil, nil, svc).WithContext(ctx).WithQuitOnDone(),
		question: question,
	}
}

func (m *researchModel) Init() tea.Cmd {
	return m.view.Start(m.question)
}

func (m *researchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	}
	if _, ok := msg.(messages.ErrorOccurred); ok {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, tea.Batch(cmd, tea.Quit)
	}
	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m *researchModel) View() string {
	return m.view.View()
}

// result returns what the research produced once the program exits.
func (m *researchModel) result() (*domain.ResearchQuery, error) {
	q, err := m.view.Query(), m.view.Err()
	if q == nil && err == nil {
		return nil, context.Canceled
	}
	return q, err
}

// RunResearch researches question with a live progress display and
// returns the finished query. Esc or ctrl+c abandons the research and
// returns context.Canceled.
func RunResearch(ctx context.Context, svc driving.ResearchService, question string) (*domain.ResearchQuery, error) {
	if svc == nil {
		return nil, ErrMissingResearchService
	}
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrInvalidInput
	}
	m := newResearchModel(ctx, svc, question)
	if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil {
		return nil, err
	}
	return m.result()
}
