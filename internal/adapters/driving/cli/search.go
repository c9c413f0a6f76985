package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

var (
	searchTopK    int
	searchJSON    bool
	searchContext bool
	searchDocs    []string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs semantic search across all indexed documents.
The query is embedded and compared with every chunk by cosine similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", domain.DefaultTopK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchContext, "context", false, "print the results as an LLM context block")
	searchCmd.Flags().StringSliceVar(&searchDocs, "doc", nil, "restrict the search to these document IDs")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	filter := domain.SearchFilter{DocumentIDs: searchDocs}
	results, err := searchService.Search(cmd.Context(), query, searchTopK, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch {
	case searchJSON:
		return outputSearchJSON(cmd, results)
	case searchContext:
		cmd.Println(searchService.BuildContext(results))
		return nil
	default:
		return outputSearchTable(cmd, results)
	}
}

// searchResultJSON is the JSON shape of one result. Embeddings are omitted.
type searchResultJSON struct {
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"document_id"`
	Document   string  `json:"document"`
	ChunkID    string  `json:"chunk_id"`
	Position   int     `json:"position"`
	Content    string  `json:"content"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, 0, len(results))
	for i := range results {
		out = append(out, searchResultJSON{
			Rank:       i + 1,
			Score:      results[i].Score,
			DocumentID: results[i].Document.ID,
			Document:   results[i].Document.Name,
			ChunkID:    results[i].Chunk.ID,
			Position:   results[i].Chunk.Position,
			Content:    results[i].Chunk.Content,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] Name (Score)
		name := results[i].Document.Name
		if name == "" {
			name = results[i].Document.ID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, name, results[i].Score)
		if source := results[i].Document.Metadata.Source; source != "" && source != name {
			cmd.Printf("      Source: %s\n", source)
		}
		if snippet := snippet(results[i].Chunk.Content, 200); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}

	return nil
}

// snippet collapses whitespace and truncates text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
