// Package cli provides the deepsearch command-line interface.
//
// Commands reach the core through driving ports held in package variables.
// The ports are injected by main via SetServices, or built lazily on first
// use through the function registered with SetBootstrap so that commands
// such as version and config never open the vector store.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// skipServices marks commands that run without the knowledge base.
const skipServices = "skip-services"

var (
	searchService   driving.SearchService
	askService      driving.AskService
	researchService driving.ResearchService
	ingestService   driving.IngestService
	documentService driving.DocumentService
	syncService     driving.SyncService
	settingsService driving.SettingsService
	aiValidator     driven.AIConfigValidator

	version = "dev"
	verbose bool

	bootstrap    Bootstrap
	bootstrapped bool
	cleanup      func()
)

// Services holds the driving ports used by commands.
type Services struct {
	Search   driving.SearchService
	Ask      driving.AskService
	Research driving.ResearchService
	Ingest   driving.IngestService
	Document driving.DocumentService
	Sync     driving.SyncService
}

// Bootstrap builds the services on first use. The returned function
// releases them and may be nil.
type Bootstrap func(ctx context.Context) (*Services, func(), error)

var rootCmd = &cobra.Command{
	Use:   "deepsearch",
	Short: "Search your documents and research the web",
	Long: `deepsearch keeps a local knowledge base of your documents and answers
questions from it, and runs multi-step web research that ends in a cited report.

Get started:
  deepsearch config set embedding.provider openai
  deepsearch ingest ~/Documents/papers
  deepsearch ask "What did the 2023 survey conclude?"
  deepsearch research "How do vector databases handle updates?"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if needsServices(cmd) {
			return ensureServices(cmd.Context())
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")
}

// SetServices injects the driving ports. Nil fields leave the port unset.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	searchService = s.Search
	askService = s.Ask
	researchService = s.Research
	ingestService = s.Ingest
	documentService = s.Document
	syncService = s.Sync
	bootstrapped = true
}

// SetSettings injects the settings service and the provider validator.
func SetSettings(settings driving.SettingsService, validator driven.AIConfigValidator) {
	settingsService = settings
	aiValidator = validator
}

// SetBootstrap registers the function that builds the services lazily.
func SetBootstrap(fn Bootstrap) {
	bootstrap = fn
	bootstrapped = false
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context so that long-running commands stop cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer runCleanup()

	return rootCmd.ExecuteContext(ctx)
}

func needsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipServices] == "true" {
			return false
		}
	}
	return true
}

func ensureServices(ctx context.Context) error {
	if bootstrapped || bootstrap == nil {
		return nil
	}
	services, release, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = release
	return nil
}

func runCleanup() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}
