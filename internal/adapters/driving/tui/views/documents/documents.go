// Package documents provides the knowledge base documents view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service not available")

// ActionOption represents a document action.
type ActionOption int

const (
	ActionShowContent ActionOption = iota
	ActionShowDetails
	ActionDelete
	ActionCancel
)

// View is the documents list view.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	documents    []domain.Document
	details      *driving.DocumentDetails
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	showingMenu  bool
	confirming   bool
	menuSelected ActionOption
	scrollOffset int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		documents:       []domain.Document{},
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the documents.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.err = nil
	v.details = nil
	v.showingMenu = false
	v.confirming = false
	return v.loadDocuments()
}

// loadDocuments returns a command that lists the knowledge base.
func (v *View) loadDocuments() tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case v.confirming:
			return v.handleConfirmKeyMsg(msg)
		case v.showingMenu:
			return v.handleMenuKeyMsg(msg)
		default:
			return v.handleKeyMsg(msg)
		}

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.documents = msg.Documents
		v.err = nil
		if v.selected >= len(v.documents) {
			v.selected = max(0, len(v.documents)-1)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentDetailsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.details = msg.Details
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.details = nil
		v.loading = true
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.details = nil
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.details = nil
			v.adjustScroll()
		}
	case "enter":
		if len(v.documents) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionShowContent
		}
	case "d":
		if len(v.documents) > 0 {
			v.confirming = true
		}
	case "esc":
		if v.details != nil {
			v.details = nil
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "r":
		v.loading = true
		return v, v.loadDocuments()
	}

	return v, nil
}

// handleMenuKeyMsg handles key presses in action menu mode.
func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.menuSelected > ActionShowContent {
			v.menuSelected--
		}
	case "down", "j":
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case "enter":
		return v.handleMenuSelect()
	case "esc":
		v.showingMenu = false
	}

	return v, nil
}

// handleConfirmKeyMsg asks before deleting.
func (v *View) handleConfirmKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirming = false
	if msg.String() != "y" {
		return v, nil
	}
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	return v, v.deleteDocument(doc.ID)
}

// handleMenuSelect handles selection of an action.
func (v *View) handleMenuSelect() (*View, tea.Cmd) {
	v.showingMenu = false
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	selected := *doc

	switch v.menuSelected {
	case ActionShowContent:
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: selected}
		}
	case ActionShowDetails:
		return v, v.loadDocDetails(selected.ID)
	case ActionDelete:
		v.confirming = true
	case ActionCancel:
	}

	return v, nil
}

// loadDocDetails returns a command that loads document details.
func (v *View) loadDocDetails(docID string) tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoDocumentService}
		}
		details, err := svc.GetDetails(ctx, docID)
		return messages.DocumentDetailsLoaded{DocumentID: docID, Details: details, Err: err}
	}
}

// deleteDocument returns a command that removes the document and its chunks.
func (v *View) deleteDocument(docID string) tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: docID, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{DocumentID: docID, Err: svc.Delete(ctx, docID)}
	}
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Title, details panel and help footer.
	reserved := 8
	if v.details != nil {
		reserved += 9
	}
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents yet. Add some with 'deepsearch ingest <files>'."))
	case v.showingMenu:
		b.WriteString(v.renderActionMenu())
		return b.String()
	default:
		v.renderList(&b)
	}

	if v.confirming {
		if doc := v.SelectedDocument(); doc != nil {
			b.WriteString("\n\n")
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s and its chunks? [y/N]", doc.Name)))
		}
	}

	if v.details != nil {
		b.WriteString("\n\n")
		b.WriteString(v.renderDetails())
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderList(b *strings.Builder) {
	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}

	if len(v.documents) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.documents)),
			len(v.documents))))
	}
}

// renderDocument renders a single document line.
func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := doc.Name
	if name == "" {
		name = doc.ID
	}
	maxNameLen := v.width/2 - 4
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	meta := fmt.Sprintf("%-10s %6d words", doc.SourceType, doc.Metadata.WordCount)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, meta))
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxNameLen, name)) +
		v.styles.Muted.Render(meta)
}

// renderDetails renders the loaded metadata of the selected document.
func (v *View) renderDetails() string {
	d := v.details
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Details"))
	b.WriteString("\n")
	rows := [][2]string{
		{"ID", d.ID},
		{"Name", d.Name},
		{"Type", d.SourceType.String()},
		{"Source", d.Source},
		{"Words", fmt.Sprintf("%d", d.WordCount)},
		{"Chunks", fmt.Sprintf("%d", d.ChunkCount)},
		{"Added", d.CreatedAt.Format("2006-01-02 15:04")},
	}
	if d.PageCount > 0 {
		rows = append(rows, [2]string{"Pages", fmt.Sprintf("%d", d.PageCount)})
	}
	for _, row := range rows {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %-7s ", row[0])))
		b.WriteString(v.styles.Normal.Render(row[1]))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderActionMenu renders the action menu overlay.
func (v *View) renderActionMenu() string {
	var b strings.Builder

	if doc := v.SelectedDocument(); doc != nil {
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Actions for: %s", doc.Name)))
		b.WriteString("\n\n")
	}

	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionShowContent, "Show Content"},
		{ActionShowDetails, "Show Details"},
		{ActionDelete, "Delete"},
		{ActionCancel, "Cancel"},
	}

	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))
	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [d] delete  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected >= 0 && v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// Details returns the loaded details of the selected document, if any.
func (v *View) Details() *driving.DocumentDetails {
	return v.details
}

// IsShowingMenu returns true if the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// IsConfirming returns true while a delete waits for confirmation.
func (v *View) IsConfirming() bool {
	return v.confirming
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
