// Command deepsearch is a local knowledge base with retrieval-augmented
// answers and multi-step web research.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/deepsearch/internal/adapters/driven/ai"
	"github.com/custodia-labs/deepsearch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/cli"
	"github.com/custodia-labs/deepsearch/internal/core/services"
	"github.com/custodia-labs/deepsearch/internal/logger"
	"github.com/custodia-labs/deepsearch/internal/parsers"
	"github.com/custodia-labs/deepsearch/internal/postprocessors/chunker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// envHome overrides the data directory.
const envHome = "DEEPSEARCH_HOME"

func main() {
	// A .env file is optional; it only supplies provider API keys.
	_ = godotenv.Load()

	if err := setup(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	// Command errors are printed by cobra.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup wires settings and registers the lazy service bootstrap.
func setup() error {
	dataDir := os.Getenv(envHome)
	if dataDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return fmt.Errorf("resolving data directory: %w", err)
		}
		dataDir = dir
	}

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"))
	if err != nil {
		return fmt.Errorf("opening prompts: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	cli.SetSettings(settingsService, ai.NewConfigValidator())
	cli.SetVersion(version)

	cli.SetBootstrap(func(context.Context) (*cli.Services, func(), error) {
		settings, err := settingsService.Get()
		if err != nil {
			return nil, nil, fmt.Errorf("loading settings: %w", err)
		}

		res, err := ai.Initialise(settings, dataDir, prompts)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Initialised services (%d warning(s))", len(res.Warnings))

		index := services.NewVectorIndex(res.Store, res.EmbeddingService)
		searchService := services.NewSearchService(index)
		documentService := services.NewDocumentService(index)
		ingestService := services.NewIngestService(
			parsers.NewDefaultRegistry(),
			chunker.FromSettings(settings.Chunking),
			index,
			services.WithTranscriber(res.Transcriber),
		)

		askService := services.NewAskService(searchService, res.LLMService)
		askService.SetPromptStore(prompts)

		researchService := services.NewResearchService(
			res.LLMService,
			res.Searcher,
			services.ResearchConfigFromSettings(settings.Research),
		)
		researchService.SetPromptStore(prompts)

		return &cli.Services{
			Search:   searchService,
			Ask:      askService,
			Research: researchService,
			Ingest:   ingestService,
			Document: documentService,
			Sync:     services.NewSyncService(ingestService, documentService),
		}, res.Close, nil
	})
	return nil
}
