package config

import (
	"os"
	"path/filepath"

	"deepcut-desktop/internal/domain"
)

// DefaultAPIBaseURL is the processing service the operators use day to day.
const DefaultAPIBaseURL = "http://bcaicpudev.impark.local:1071"

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		APIBaseURL:    DefaultAPIBaseURL,
		LogDir:        DefaultLogDir(homeDir),
		ShareRoot:     "",
		PathSeparator: string(filepath.Separator),
	}
}

// DefaultLogDir is the application-private directory for processing logs.
func DefaultLogDir(homeDir string) string {
	return filepath.Join(homeDir, ".deepcut-desktop", "logs")
}

// DefaultSettingsPath is where JSONStore keeps settings unless told otherwise.
func DefaultSettingsPath(homeDir string) string {
	return filepath.Join(homeDir, ".deepcut-desktop", "settings.json")
}
