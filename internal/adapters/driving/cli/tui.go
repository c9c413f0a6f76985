package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui"
)

var tuiTopK int

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for deepsearch.

The TUI lets you search your documents, run web research with live
progress, and browse or delete indexed documents.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Select
  Esc      - Back / Cancel
  ctrl+x   - Cancel running research
  q        - Quit from the menu`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiTopK, "top-k", "k", 10, "number of search results")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI error: %v", r)
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(searchService, researchService, documentService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).WithTopK(tuiTopK).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
