package domain

import (
	"encoding/json"
	"time"
)

// BookID identifies one book (kitap) on the remote service.
type BookID = int

// ProcessingMode selects the book-path processing endpoint.
type ProcessingMode string

const (
	ProcessingModeExhaustive ProcessingMode = "exhaustive"
	ProcessingModeRandom     ProcessingMode = "random"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	APIBaseURL    string `json:"apiBaseUrl"`
	LogDir        string `json:"logDir"`
	ShareRoot     string `json:"shareRoot"`
	PathSeparator string `json:"pathSeparator"`
}

// SelectionFilter narrows candidate books by parent organization and date range.
type SelectionFilter struct {
	ParentOrgIDs []int  `json:"ustKurumIds"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
}

// ReviewCursor points at one question of the active book.
type ReviewCursor struct {
	BookID         BookID `json:"bookId"`
	QuestionIndex  int    `json:"questionIndex"`
	TotalQuestions int    `json:"totalQuestions"`
}

// QuestionPair is one before/after image pair as returned by the preview endpoint.
type QuestionPair struct {
	BeforeImage    string `json:"beforeImage"`
	AfterImage     string `json:"afterImage"`
	BeforeSrc      string `json:"beforeSrc"`
	AfterSrc       string `json:"afterSrc"`
	BeforePath     string `json:"beforePath"`
	AfterPath      string `json:"afterPath"`
	IsMarkedFaulty bool   `json:"isMarkedFaulty"`
	HasPrevious    bool   `json:"hasPrevious"`
	HasNext        bool   `json:"hasNext"`
}

// FaultReport flags one pair as incorrectly processed.
type FaultReport struct {
	BeforePath string `json:"before_path"`
	AfterPath  string `json:"after_path"`
}

// ProcessingRequest is either a by-books or a by-organizations batch request.
// Exactly one of ByBooks and ByOrganizations is set.
type ProcessingRequest struct {
	ByBooks         *ByBooks         `json:"byBooks,omitempty"`
	ByOrganizations *ByOrganizations `json:"byOrganizations,omitempty"`
}

// ByBooks processes an explicit book list.
type ByBooks struct {
	BookIDs      []BookID       `json:"bookIds"`
	Mode         ProcessingMode `json:"mode"`
	CountPerBook *int           `json:"countPerBook,omitempty"`
}

// ByOrganizations processes every book under the given parent organizations.
type ByOrganizations struct {
	ParentOrgIDs []int  `json:"parentOrgIds"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
}

// LogEntry is one server-side processing log line.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// ProcessingResult holds the logs and opaque summary of one batch run.
type ProcessingResult struct {
	Status  string          `json:"status"`
	Logs    []LogEntry      `json:"logs"`
	Summary json.RawMessage `json:"summary,omitempty"`
}

// DiagnosticStatus indicates whether a single startup check passed.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one startup check result with optional hint.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
}

// DiagnosticReport aggregates startup checks for UI and API responses.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HasFailures bool             `json:"hasFailures"`
	Items       []DiagnosticItem `json:"items"`
}
