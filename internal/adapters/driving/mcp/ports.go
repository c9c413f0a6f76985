package mcp

import (
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides similarity search and context building.
	Search driving.SearchService

	// Document lists and reads knowledge base documents.
	Document driving.DocumentService

	// Ask answers questions from the knowledge base.
	Ask driving.AskService

	// Research runs multi-step web research.
	Research driving.ResearchService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Document, Ask and Research are optional; their tools report
	// ErrToolUnavailable when called.
	return nil
}
