package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"documents", "docs"},
	Short:   "Manage indexed documents",
	Long:    `List, view, refresh, or delete documents in the knowledge base.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDetailsCmd = &cobra.Command{
	Use:   "details [doc-id]",
	Short: "Show document metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDetails,
}

var documentDeleteCmd = &cobra.Command{
	Use:     "delete [doc-id]",
	Aliases: []string{"rm"},
	Short:   "Remove a document and its chunks",
	Args:    cobra.ExactArgs(1),
	RunE:    runDocumentDelete,
}

var documentRefreshCmd = &cobra.Command{
	Use:   "refresh [doc-id]",
	Short: "Re-ingest a document from its source file",
	Long: `Parses the document's source file again and replaces the stored
document. The old document is kept if the file can no longer be ingested.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentRefresh,
}

var documentStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base totals",
	Args:  cobra.NoArgs,
	RunE:  runDocumentStats,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDetailsCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentRefreshCmd)
	documentCmd.AddCommand(documentStatsCmd)
	rootCmd.AddCommand(documentCmd)
}

const timeLayout = "2006-01-02 15:04:05"

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found. Add some with 'deepsearch ingest'.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Name: %s (%s)\n", docs[i].Name, docs[i].SourceType)
		if docs[i].Metadata.Source != "" {
			cmd.Printf("    Source: %s\n", docs[i].Metadata.Source)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Name:     %s\n", doc.Name)
	cmd.Printf("  Type:     %s\n", doc.SourceType)
	cmd.Printf("  Source:   %s\n", doc.Metadata.Source)
	cmd.Printf("  Words:    %d\n", doc.Metadata.WordCount)
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format(timeLayout))
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(doc.RawText)
	return nil
}

func runDocumentDetails(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	details, err := documentService.GetDetails(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document details: %w", err)
	}

	cmd.Printf("Document Details: %s\n\n", details.ID)
	cmd.Printf("  Name:        %s\n", details.Name)
	cmd.Printf("  Type:        %s\n", details.SourceType)
	cmd.Printf("  Source:      %s\n", details.Source)
	cmd.Printf("  Words:       %d\n", details.WordCount)
	if details.PageCount > 0 {
		cmd.Printf("  Pages:       %d\n", details.PageCount)
	}
	cmd.Printf("  Chunks:      %d\n", details.ChunkCount)
	cmd.Printf("  Created:     %s\n", details.CreatedAt.Format(timeLayout))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	if err := documentService.Delete(cmd.Context(), docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", docID)
	return nil
}

func runDocumentRefresh(cmd *cobra.Command, args []string) error {
	if documentService == nil || syncService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc.Metadata.Source == "" {
		return fmt.Errorf("%w: document %s has no source file", domain.ErrInvalidInput, doc.ID)
	}

	cmd.Printf("Refreshing document %s...\n", doc.ID)

	updated, err := syncService.Apply(cmd.Context(), domain.FileChange{
		Type: domain.ChangeUpdated,
		Path: doc.Metadata.Source,
	})
	if err != nil {
		return fmt.Errorf("failed to refresh document: %w", err)
	}

	cmd.Printf("Document refreshed as %s.\n", updated.ID)
	return nil
}

func runDocumentStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	stats, err := documentService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Printf("Documents: %d\n", stats.Documents)
	cmd.Printf("Chunks:    %d\n", stats.Chunks)
	return nil
}
