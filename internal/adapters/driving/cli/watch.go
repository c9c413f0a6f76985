package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deepsearch/internal/connectors/filesystem"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

var (
	watchInitial   bool
	watchRecursive bool
	watchDebounce  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the knowledge base in sync with a folder",
	Long: `Watches a folder and re-ingests files as they are created or changed.
Deleted files are removed from the knowledge base. A changed file replaces
its previous document only once the new version has been ingested.

With --initial, supported files not yet in the knowledge base are ingested
before watching starts. Press ctrl+c to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "ingest files not yet indexed before watching")
	watchCmd.Flags().BoolVarP(&watchRecursive, "recursive", "r", true, "watch subdirectories")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "quiet period before a change is applied")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if syncService == nil || ingestService == nil {
		return errors.New("sync service not configured")
	}
	ctx := cmd.Context()

	conn := filesystem.New(filesystem.ResolvePath(args[0]),
		filesystem.WithFilter(ingestService.Supports),
		filesystem.WithRecursive(watchRecursive),
		filesystem.WithDebounce(watchDebounce),
	)
	defer conn.Close()

	if watchInitial {
		paths, err := conn.Scan(ctx)
		if err != nil {
			return err
		}
		if results := syncService.SyncFiles(ctx, paths); len(results) > 0 {
			cmd.Printf("Ingesting %d new file(s)...\n", len(results))
			if failed := printIngestResults(cmd, results); failed > 0 {
				cmd.Printf("%d file(s) failed to ingest\n", failed)
			}
			cmd.Println()
		}
	}

	changes, err := conn.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching %s: %w", args[0], err)
	}

	cmd.Printf("Watching %s (ctrl+c to stop)\n", conn.RootPath())
	for change := range changes {
		applyChange(cmd, change)
	}

	cmd.Println("Stopped watching.")
	return nil
}

func applyChange(cmd *cobra.Command, change domain.FileChange) {
	name := filepath.Base(change.Path)
	doc, err := syncService.Apply(cmd.Context(), change)
	switch {
	case err != nil:
		cmd.Printf("  ✗ %s %s: %v\n", change.Type, name, err)
	case change.Type == domain.ChangeDeleted:
		cmd.Printf("  - removed %s\n", name)
	default:
		cmd.Printf("  ✓ %s %s (id %s)\n", change.Type, name, doc.ID)
	}
}
