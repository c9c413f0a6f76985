// Package tui provides an interactive terminal user interface for deepsearch.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides knowledge base search.
	Search driving.SearchService

	// Research runs web research. Optional; the research view reports
	// an error when it is missing.
	Research driving.ResearchService

	// Document manages documents in the knowledge base. Optional.
	Document driving.DocumentService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	search driving.SearchService,
	research driving.ResearchService,
	document driving.DocumentService,
) *Ports {
	return &Ports{
		Search:   search,
		Research: research,
		Document: document,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
