package diagnostics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"deepcut-desktop/internal/domain"
)

const probeTimeout = 3 * time.Second

// Checker validates the API endpoint and the local log directory.
type Checker struct {
	probe      func(ctx context.Context, rawURL string) error
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real network and OS dependencies.
func NewChecker() *Checker {
	client := &http.Client{Timeout: probeTimeout}
	return &Checker{
		probe: func(ctx context.Context, rawURL string) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			return resp.Body.Close()
		},
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	urlItem := c.checkAPIURL(settings.APIBaseURL)
	items := []domain.DiagnosticItem{
		urlItem,
		c.checkAPIReachable(settings.APIBaseURL, urlItem.Status == domain.DiagnosticStatusPass),
		c.checkLogDir(settings.LogDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkAPIURL verifies the base URL is set and absolute.
func (c *Checker) checkAPIURL(raw string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "api_url",
		Name: "API adresi",
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "API adresi boş."
		item.Hint = "Ayarlardan sunucu adresini girin veya varsayılana döndürün."
		return item
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Geçersiz API adresi: %s", raw)
		item.Hint = "Adres http:// veya https:// ile başlamalı."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("API adresi: %s", raw)
	return item
}

// checkAPIReachable reports whether the server answers at all; any HTTP status counts.
func (c *Checker) checkAPIReachable(raw string, urlValid bool) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "api_reachable",
		Name: "API erişimi",
	}

	if !urlValid {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "API adresi geçersiz olduğu için erişim denenmedi."
		item.Hint = "Önce API adresini düzeltin."
		return item
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := c.probe(ctx, strings.TrimSpace(raw)); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Sunucuya ulaşılamadı: %v", err)
		item.Hint = "Ağ bağlantınızı ve sunucunun çalıştığını kontrol edin."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Sunucu yanıt veriyor."
	return item
}

// checkLogDir validates log directory existence and write access.
func (c *Checker) checkLogDir(logDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "log_dir",
		Name: "Log klasörü",
	}

	if strings.TrimSpace(logDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Log klasörü boş."
		item.Hint = "İşlem loglarının kaydedileceği bir klasör seçin."
		return item
	}

	if err := c.mkdirAll(logDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Log klasörü oluşturulamadı: %s", logDir)
		item.Hint = "Yazılabilir bir konum seçin veya izinleri düzenleyin."
		return item
	}

	tmpFile, err := c.createTemp(logDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Log klasörüne yazılamıyor: %s", logDir)
		item.Hint = "Yazılabilir bir klasör seçin."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Yazılabilir klasör: %s", logDir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	probe func(ctx context.Context, rawURL string) error,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		probe:      probe,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
