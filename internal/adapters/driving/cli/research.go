package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/deepsearch/internal/adapters/driving/report"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/services"
)

var (
	researchFormat string
	researchOutput string
	researchNoTUI  bool
)

// stdoutIsTerminal reports whether live progress can be drawn.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var researchCmd = &cobra.Command{
	Use:   "research [question]",
	Short: "Research a question on the web",
	Long: `Breaks the question into sub-questions, searches the web for each one
and writes a report that cites its sources.

In a terminal, progress is shown live and the report is displayed when the
run completes. Otherwise progress lines go to stderr and the report to stdout.
Press ctrl+c to cancel a run.

Formats: text, markdown, json, yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringVarP(&researchFormat, "format", "f", string(report.FormatText), "report format")
	researchCmd.Flags().StringVarP(&researchOutput, "output", "o", "", "write the report to a file")
	researchCmd.Flags().BoolVar(&researchNoTUI, "no-tui", false, "print plain progress lines instead of the live view")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	if researchService == nil {
		return errors.New("research service not configured")
	}

	format, err := report.ParseFormat(researchFormat)
	if err != nil {
		return err
	}

	interactive := !researchNoTUI && stdoutIsTerminal() &&
		(researchOutput != "" || format == report.FormatText)

	var q *domain.ResearchQuery
	if interactive {
		q, err = tui.RunResearch(cmd.Context(), researchService, args[0])
	} else {
		q, err = researchWithProgress(cmd.Context(), cmd.ErrOrStderr(), args[0])
	}

	if err != nil {
		if services.IsCancellation(err) {
			return fmt.Errorf("research cancelled: %w", err)
		}
		if q != nil && len(q.SearchResults) > 0 && !interactive {
			// Whatever was gathered before the failure is still useful.
			_ = writeReport(cmd, q, format)
		}
		return fmt.Errorf("research failed: %w", err)
	}

	if interactive && researchOutput == "" {
		// The live view already shows the report.
		return nil
	}
	return writeReport(cmd, q, format)
}

// researchWithProgress runs the research and prints each progress event
// to w as a line.
func researchWithProgress(ctx context.Context, w io.Writer, question string) (*domain.ResearchQuery, error) {
	events := make(chan domain.ProgressEvent, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			fmt.Fprintln(w, formatProgress(ev))
		}
	}()

	q, err := researchService.Research(ctx, question, events)
	close(events)
	<-done
	return q, err
}

func formatProgress(ev domain.ProgressEvent) string {
	if ev.SubQuestionIndex > 0 {
		return fmt.Sprintf("[%s %d/%d] %s", ev.Phase, ev.SubQuestionIndex, ev.SubQuestionTotal, ev.Message)
	}
	return fmt.Sprintf("[%s] %s", ev.Phase, ev.Message)
}

func writeReport(cmd *cobra.Command, q *domain.ResearchQuery, format report.Format) error {
	if researchOutput == "" {
		return report.Write(cmd.OutOrStdout(), q, format)
	}

	f, err := os.Create(researchOutput)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := report.Write(f, q, format); err != nil {
		f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	cmd.Printf("Report written to %s\n", researchOutput)
	return nil
}
