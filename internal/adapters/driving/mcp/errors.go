// Package mcp provides an MCP (Model Context Protocol) server adapter for DeepSearch.
// It lets AI assistants search the local knowledge base and run web research.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrToolUnavailable is returned by tools whose backing service is not configured.
	ErrToolUnavailable = errors.New("mcp: tool is not configured")
)
