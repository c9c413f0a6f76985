// Package doccontent provides the document text view for the TUI.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service not available")

// View shows the normalised text of one document.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context
	viewport        viewport.Model

	document *domain.Document
	content  string
	back     messages.ViewType
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new document content view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		viewport:        viewport.New(76, 18),
		back:            messages.ViewDocuments,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument shows doc and loads its text. Esc returns to back.
func (v *View) SetDocument(doc *domain.Document, back messages.ViewType) tea.Cmd {
	v.document = doc
	v.back = back
	v.content = ""
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()
	return v.loadContent()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// loadContent fetches the stored document so the full text is shown even
// when the caller only had a summary.
func (v *View) loadContent() tea.Cmd {
	svc, ctx, doc := v.documentService, v.ctx, v.document
	return func() tea.Msg {
		if doc == nil || svc == nil {
			return messages.DocumentContentLoaded{Err: ErrNoDocumentService}
		}
		full, err := svc.Get(ctx, doc.ID)
		if err != nil {
			return messages.DocumentContentLoaded{DocumentID: doc.ID, Err: err}
		}
		return messages.DocumentContentLoaded{DocumentID: doc.ID, Content: full.RawText}
	}
}

// Update handles messages for the document content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			back := v.back
			return v, func() tea.Msg {
				return messages.ViewChanged{View: back}
			}
		case "home", "g":
			v.viewport.GotoTop()
			return v, nil
		case "end", "G":
			v.viewport.GotoBottom()
			return v, nil
		}
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case messages.DocumentContentLoaded:
		if v.document != nil && msg.DocumentID != "" && msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.content = msg.Content
		v.viewport.SetContent(v.wrap(msg.Content))
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// wrap fits text to the viewport width.
func (v *View) wrap(text string) string {
	return lipgloss.NewStyle().Width(v.viewport.Width).Render(text)
}

// View renders the document content view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document Content"
	if v.document != nil {
		title = v.document.Name
		if title == "" {
			title = v.document.ID
		}
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(0, min(v.width-4, 60))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading content..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.content == "":
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		b.WriteString(v.viewport.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%3.f%%]", v.viewport.ScrollPercent()*100)))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	// Title, separator, position and help footer.
	v.viewport.Width = max(20, width-4)
	v.viewport.Height = max(1, height-7)
	if v.content != "" {
		v.viewport.SetContent(v.wrap(v.content))
	}
}

// Document returns the current document.
func (v *View) Document() *domain.Document {
	return v.document
}

// Content returns the document content.
func (v *View) Content() string {
	return v.content
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
