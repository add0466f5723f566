package config

import (
	"github.com/glance-io/glance/internal/models"
)

// LoadSettings loads the global settings from ~/.glance/settings.yaml.
// If the file doesn't exist, returns default settings. Keys missing from
// the file keep their defaults.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadYAMLOrDefault(path, models.NewSettings)
}

// SaveSettings saves the global settings to ~/.glance/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}
