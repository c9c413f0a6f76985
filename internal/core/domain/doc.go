// Package domain defines the core business entities for deepsearch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A parsed file held in the knowledge base
//   - Chunk: An embedded, retrievable unit within a document
//   - SearchResult: A scored chunk returned by similarity search
//   - ResearchQuery: The state of one DeepSearch research run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
