package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"deepcut-desktop/internal/domain"
)

const (
	EnvAPIURL    = "DEEPCUT_API_URL"
	EnvLogDir    = "DEEPCUT_LOG_DIR"
	EnvShareRoot = "DEEPCUT_SHARE_ROOT"
)

// LoadDotEnv reads .env files if present. Missing files are not an error.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ApplyEnv overlays non-empty environment overrides onto settings.
func ApplyEnv(settings domain.Settings) domain.Settings {
	return applyEnvFrom(settings, os.Getenv)
}

func applyEnvFrom(settings domain.Settings, getenv func(string) string) domain.Settings {
	if v := strings.TrimSpace(getenv(EnvAPIURL)); v != "" {
		settings.APIBaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvLogDir)); v != "" {
		settings.LogDir = v
	}
	if v := strings.TrimSpace(getenv(EnvShareRoot)); v != "" {
		settings.ShareRoot = v
	}
	return settings
}

// Normalize trims user inputs and fills defaults for empty fields.
func Normalize(settings domain.Settings) domain.Settings {
	defaults := DefaultSettings()

	settings.APIBaseURL = strings.TrimRight(strings.TrimSpace(settings.APIBaseURL), "/")
	settings.LogDir = strings.TrimSpace(settings.LogDir)
	settings.ShareRoot = strings.TrimSpace(settings.ShareRoot)
	if settings.APIBaseURL == "" {
		settings.APIBaseURL = defaults.APIBaseURL
	}
	if settings.LogDir == "" {
		settings.LogDir = defaults.LogDir
	}
	if settings.PathSeparator == "" {
		settings.PathSeparator = defaults.PathSeparator
	}
	return settings
}
