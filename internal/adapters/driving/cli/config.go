package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "Manage application settings",
	Long: `View and change AI providers, search, chunking and storage settings.

Settings are stored in ~/.deepsearch/config.toml. API keys left unset are
read from OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY,
GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_ENGINE_ID.`,
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a stored setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Validates and stores a setting. Run 'deepsearch config keys' for the list.

When the value of an api_key setting is omitted it is read from the
terminal without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every setting key",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the configured AI providers",
	Long:  `Connects to the embedding and LLM providers to verify that the settings work.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

// passwordInput is read by readPassword; replaced in tests.
var passwordInput io.Reader = os.Stdin

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey)
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Requests/s: %g\n", settings.Embedding.RequestsPerSecond)
	}
	printStatus(cmd, settings.Embedding.IsConfigured())

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model, settings.LLM.BaseURL, settings.LLM.APIKey)
	printStatus(cmd, settings.LLM.IsConfigured())

	cmd.Println("[Web Search]")
	cmd.Printf("  Provider: %s\n", settings.Search.Provider)
	switch settings.Search.Provider {
	case domain.SearchProviderGoogle:
		cmd.Printf("  API Key: %s\n", displayKey(settings.Search.APIKey))
		cmd.Printf("  Engine ID: %s\n", valueOrUnset(settings.Search.EngineID))
	case domain.SearchProviderLLM:
		printProvider(cmd, settings.Search.LLM.Provider, settings.Search.LLM.Model,
			settings.Search.LLM.BaseURL, settings.Search.LLM.APIKey)
	}
	printStatus(cmd, settings.Search.IsConfigured())

	cmd.Println("[Transcription]")
	cmd.Printf("  Model: %s\n", settings.Transcription.Model)
	cmd.Printf("  API Key: %s\n", displayKey(settings.Transcription.APIKey))
	printStatus(cmd, settings.Transcription.IsConfigured())

	cmd.Println("[Chunking]")
	cmd.Printf("  Chunk size: %d\n", settings.Chunking.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Printf("  Min chunk size: %d\n", settings.Chunking.MinChunkSize)
	cmd.Println()

	cmd.Println("[Research]")
	cmd.Printf("  Max sub-questions: %d\n", settings.Research.MaxSubQuestions)
	cmd.Printf("  Fail fast: %t\n", settings.Research.FailFast)
	cmd.Printf("  Timeout: %ds\n", settings.Research.TimeoutSeconds)
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend)
	if settings.Store.Path != "" {
		cmd.Printf("  Path: %s\n", settings.Store.Path)
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string) {
	if provider == "" {
		cmd.Println("  Provider: (not set)")
		return
	}
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", valueOrUnset(model))
	if provider.IsLocal() || baseURL != "" {
		cmd.Printf("  Base URL: %s\n", valueOrUnset(baseURL))
	}
	if provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", displayKey(apiKey))
	}
}

func printStatus(cmd *cobra.Command, configured bool) {
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func displayKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	value, ok, err := settingsService.Lookup(key)
	if err != nil {
		return err
	}
	if !ok {
		cmd.Printf("%s is not set\n", key)
		return nil
	}
	if isSecretKey(key) {
		value = maskAPIKey(value)
	}
	cmd.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case isSecretKey(key):
		cmd.Printf("Enter value for %s: ", key)
		value = readPassword()
		cmd.Println()
	default:
		return fmt.Errorf("%w: missing value for %s", domain.ErrInvalidInput, key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if isSecretKey(key) {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	cmd.Println(settingsService.Path())
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil || aiValidator == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	failed := 0
	check := func(name string, configured bool, err error) {
		switch {
		case !configured:
			cmd.Printf("  - %s: not configured\n", name)
		case err != nil:
			failed++
			cmd.Printf("  ✗ %s: %v\n", name, err)
		default:
			cmd.Printf("  ✓ %s: ok\n", name)
		}
	}

	cmd.Println("Checking providers...")
	check("Embedding", settings.Embedding.IsConfigured(), aiValidator.ValidateEmbedding(&settings.Embedding))
	check("LLM", settings.LLM.IsConfigured(), aiValidator.ValidateLLM(&settings.LLM))
	if settings.Search.Provider == domain.SearchProviderLLM {
		check("Web search", settings.Search.IsConfigured(), aiValidator.ValidateLLM(&settings.Search.LLM))
	} else {
		check("Web search", settings.Search.IsConfigured(), nil)
	}

	if failed > 0 {
		return fmt.Errorf("%d provider(s) failed. Run 'deepsearch config set' to fix", failed)
	}
	return nil
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, ".api_key")
}

// readPassword reads a line without echo when stdin is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if f, ok := passwordInput.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, _ := term.ReadPassword(int(f.Fd()))
		return strings.TrimSpace(string(b))
	}
	input, _ := bufio.NewReader(passwordInput).ReadString('\n')
	return strings.TrimSpace(input)
}

// maskAPIKey masks an API key for display.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
