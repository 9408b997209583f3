package bootstrap

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"deepcut-desktop/internal/config"
	"deepcut-desktop/internal/domain"
)

// InstallOrFixDiagnostic applies a local remediation for one failed diagnostic item.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.loadSettings()
	if err != nil {
		return domain.DiagnosticReport{}, err
	}

	settingsChanged := false
	var fixErr error

	switch id {
	case "api_url":
		settings, settingsChanged = fixAPIURL(settings)
	case "log_dir":
		settings, settingsChanged, fixErr = fixLogDir(settings, os.MkdirAll)
	case "api_reachable":
		fixErr = fmt.Errorf("sunucu erişimi otomatik düzeltilemez; ağ bağlantısını ve %s adresini kontrol edin", settings.APIBaseURL)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.applySettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.applySettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

// fixAPIURL resets an empty or malformed base URL to the default service.
func fixAPIURL(settings domain.Settings) (domain.Settings, bool) {
	parsed, err := url.Parse(settings.APIBaseURL)
	if err == nil && parsed.Host != "" && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		return settings, false
	}
	settings.APIBaseURL = config.DefaultAPIBaseURL
	return settings, true
}

// fixLogDir creates the configured log directory, falling back to the default one.
func fixLogDir(settings domain.Settings, mkdirAll func(string, os.FileMode) error) (domain.Settings, bool, error) {
	logDir := strings.TrimSpace(settings.LogDir)
	changed := false
	if logDir == "" {
		logDir = config.DefaultSettings().LogDir
		settings.LogDir = logDir
		changed = true
	}

	err := mkdirAll(logDir, 0o755)
	if err == nil {
		return settings, changed, nil
	}

	fallback := config.DefaultSettings().LogDir
	if fallback != logDir && mkdirAll(fallback, 0o755) == nil {
		settings.LogDir = fallback
		return settings, true, nil
	}
	return settings, changed, fmt.Errorf("create log directory %s: %w", logDir, err)
}
