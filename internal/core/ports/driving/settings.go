package driving

import "github.com/custodia-labs/camdeck/internal/core/domain"

// SettingsService exposes application settings.
type SettingsService interface {
	// Get retrieves current application settings, defaults filled in.
	Get() (*domain.AppSettings, error)

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Validate checks the configured values.
	Validate() error

	// ConfigPath returns where configuration is read from.
	ConfigPath() string
}
