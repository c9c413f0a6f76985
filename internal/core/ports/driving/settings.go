package driving

import "github.com/custodia-labs/deepsearch/internal/core/domain"

// SettingsService reads and updates application settings.
type SettingsService interface {
	// Get returns the effective settings: stored values over defaults, with
	// API keys filled from the environment when not stored.
	Get() (*domain.AppSettings, error)

	// Set validates and stores a single dotted key from its string form.
	Set(key, value string) error

	// Lookup returns the stored string form of a key and whether it is set.
	Lookup(key string) (string, bool, error)

	// Keys lists every supported key.
	Keys() []string

	// Path returns where settings are persisted.
	Path() string
}
