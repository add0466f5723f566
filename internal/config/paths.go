// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the global Glance directory.
	GlobalDirName = ".glance"

	// LogsDirName is the name of the logs directory.
	LogsDirName = "logs"
)

// File names
const (
	DaemonFileName            = "daemon.yaml"
	SettingsFileName          = "settings.yaml"
	EventsFileName            = "events.yaml"
	GoogleCredentialsFileName = "google_credentials.json"
	GoogleTokenFileName       = "google_token.json"
	DaemonLogFileName         = "glanced.log"
)

// GlobalDir returns the path to the global Glance directory (~/.glance/).
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

func globalFile(name string) (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) {
	return globalFile(DaemonFileName)
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	return globalFile(SettingsFileName)
}

// GlobalEventsFile returns the path to the local calendar file.
func GlobalEventsFile() (string, error) {
	return globalFile(EventsFileName)
}

// GoogleCredentialsFile returns the path to the OAuth client credentials.
func GoogleCredentialsFile() (string, error) {
	return globalFile(GoogleCredentialsFileName)
}

// GoogleTokenFile returns the path to the stored OAuth token.
func GoogleTokenFile() (string, error) {
	return globalFile(GoogleTokenFileName)
}

// GlobalLogsDir returns the path to the logs directory.
func GlobalLogsDir() (string, error) {
	return globalFile(LogsDirName)
}

// DaemonLogFile returns the path to the daemon log file.
func DaemonLogFile() (string, error) {
	dir, err := GlobalLogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DaemonLogFileName), nil
}

// EnsureGlobalDir creates the global Glance directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// EnsureGlobalLogsDir creates the global logs directory if it doesn't exist.
func EnsureGlobalLogsDir() error {
	dir, err := GlobalLogsDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
