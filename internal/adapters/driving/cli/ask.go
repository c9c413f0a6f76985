package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

var (
	askTopK    int
	askDocs    []string
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from your documents",
	Long: `Retrieves the chunks most similar to the question and asks the LLM to
answer using only that context. The answer names the documents it relied on.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", domain.DefaultTopK, "number of chunks given to the LLM")
	askCmd.Flags().StringSliceVar(&askDocs, "doc", nil, "restrict retrieval to these document IDs")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "list the retrieved chunks after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	answer, err := askService.Ask(cmd.Context(), args[0], driving.AskOptions{
		TopK:   askTopK,
		Filter: domain.SearchFilter{DocumentIDs: askDocs},
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)

	if askSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i := range answer.Sources {
			src := answer.Sources[i]
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, src.Document.Name, src.Score)
			cmd.Printf("      %s\n", snippet(src.Chunk.Content, 120))
		}
	}
	return nil
}
