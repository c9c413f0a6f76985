package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deepsearch/internal/connectors/filesystem"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

var ingestRecursive bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Add files to the knowledge base",
	Long: `Parses, chunks and embeds files so they can be searched.

Directories are scanned for supported files; hidden files are skipped.
Supported formats: pdf, docx, pptx, txt, md, vtt, srt, html, eml, and
audio (mp3, wav, m4a, webm, ogg) when transcription is configured.

A file that fails does not stop the others. The command exits with an
error if any file failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", true, "scan subdirectories")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	paths, err := expandPaths(cmd.Context(), args, ingestService, ingestRecursive)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		cmd.Println("No supported files found.")
		return nil
	}

	cmd.Printf("Ingesting %d file(s)...\n\n", len(paths))
	results := ingestService.IngestBatch(cmd.Context(), paths)
	failed := printIngestResults(cmd, results)

	cmd.Println()
	cmd.Printf("Ingested %d of %d file(s)\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to ingest", failed)
	}
	return nil
}

// expandPaths resolves file:// URIs and replaces directories with the
// supported files beneath them. Explicit files are kept even when
// unsupported so that the failure is reported.
func expandPaths(ctx context.Context, args []string, ingest driving.IngestService, recursive bool) ([]string, error) {
	var paths []string
	for _, arg := range args {
		path := filesystem.ResolvePath(arg)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, path)
			continue
		}

		found, err := filesystem.New(path,
			filesystem.WithFilter(ingest.Supports),
			filesystem.WithRecursive(recursive),
		).Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

// printIngestResults prints one line per file and returns the failure count.
func printIngestResults(cmd *cobra.Command, results []driving.IngestResult) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			cmd.Printf("  ✗ %s: %v\n", filepath.Base(r.Path), r.Err)
			continue
		}
		cmd.Printf("  ✓ %s (%d chunks, id %s)\n", r.Document.Name, r.Chunks, r.Document.ID)
	}
	return failed
}
