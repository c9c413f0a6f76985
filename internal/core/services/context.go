package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// contextSeparator divides source blocks in a retrieval context.
const contextSeparator = "\n\n---\n\n"

// BuildContext formats search results into a block that can be injected
// into a prompt. Each result becomes "[Source i: name]" followed by the
// chunk text, numbered from 1 in result order. Empty input yields "".
func BuildContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, r.Document.Name, r.Chunk.Content)
	}
	return strings.Join(blocks, contextSeparator)
}
