// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the knowledge base search view.
	ViewSearch
	// ViewResearch is the web research view.
	ViewResearch
	// ViewDocuments lists documents in the knowledge base.
	ViewDocuments
	// ViewDocContent shows a document's extracted text.
	ViewDocContent
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewResearch:
		return "research"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// ResearchProgress carries one progress event of a running research.
// Run identifies the research so events of an abandoned run can be dropped.
type ResearchProgress struct {
	Run   int
	Event domain.ProgressEvent
}

// ResearchCompleted carries the outcome of a research run.
type ResearchCompleted struct {
	Run   int
	Query *domain.ResearchQuery
	Err   error
}

// DocumentsLoaded carries the documents in the knowledge base.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was selected.
type DocumentSelected struct {
	Document domain.Document
}

// DocumentContentLoaded carries the extracted text of a document.
type DocumentContentLoaded struct {
	DocumentID string
	Content    string
	Err        error
}

// DocumentDetailsLoaded carries the metadata of a document.
type DocumentDetailsLoaded struct {
	DocumentID string
	Details    *driving.DocumentDetails
	Err        error
}

// DocumentDeleted signals a document was removed.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}
