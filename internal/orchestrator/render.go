package orchestrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"deepcut-desktop/internal/domain"
)

const (
	logsHeader    = "--- İŞLEM LOGLARI ---"
	summaryHeader = "--- İŞLEM ÖZETİ ---"

	// OrganizationPreviewNote closes every organization run's log.
	OrganizationPreviewNote = "Not: Kurum bazlı işlemlerde önizleme özelliği şu an için desteklenmemektedir."
)

// RenderLog formats a processing result as the text shown on screen and saved to disk.
func RenderLog(result domain.ProcessingResult, organizationRun bool, loc *time.Location) string {
	var b strings.Builder

	if len(result.Logs) > 0 {
		b.WriteString(logsHeader + "\n")
		for _, entry := range result.Logs {
			fmt.Fprintf(&b, "[%s] [%s] %s\n", formatLogTime(entry.Timestamp, loc), entry.Level, entry.Message)
		}
	}

	if summary := prettySummary(result.Summary); summary != "" {
		b.WriteString("\n" + summaryHeader + "\n")
		b.WriteString(summary)
	}

	if organizationRun {
		b.WriteString("\n\n" + OrganizationPreviewNote)
	}
	return b.String()
}

// LogFilename names the artifact for a run started at now.
func LogFilename(now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05")
	return "log-" + strings.ReplaceAll(stamp, ":", "-") + ".txt"
}

// formatLogTime renders server timestamps as dd.mm.yyyy hh:mm:ss in loc.
// Unparseable timestamps are shown as sent.
func formatLogTime(raw string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.In(loc).Format("02.01.2006 15:04:05")
		}
	}
	return raw
}

func prettySummary(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return out.String()
}
