package ipc

import (
	"time"

	"deepcut-desktop/internal/domain"
)

// Version is the message schema version every sender stamps.
const Version = 1

// WindowID addresses one window on the channel.
type WindowID string

// ShellWindow is the reserved address of the desktop shell process.
const ShellWindow WindowID = "shell"

// Kind classifies messages carried between windows.
type Kind string

const (
	KindOpenPreviewWindow  Kind = "open-preview-window"
	KindInitData           Kind = "init-data"
	KindOpenSelectorWindow Kind = "open-selector-window"
	KindFiltersData        Kind = "filters-data"
	KindSelectionComplete  Kind = "selection-complete"
	KindUpdateBookIDs      Kind = "update-book-ids"
	KindSaveLogFile        Kind = "save-log-file"
	KindLogFileSaved       Kind = "log-file-saved"
)

// Message is one sequenced, versioned payload between two windows.
// Only the fields belonging to Kind are populated.
type Message struct {
	Seq       int64                   `json:"seq"`
	Timestamp time.Time               `json:"timestamp"`
	Version   int                     `json:"version"`
	Kind      Kind                    `json:"kind"`
	From      WindowID                `json:"from"`
	To        WindowID                `json:"to"`
	BookIDs   []domain.BookID         `json:"bookIds,omitempty"`
	Filter    *domain.SelectionFilter `json:"filter,omitempty"`
	Filename  string                  `json:"filename,omitempty"`
	Content   string                  `json:"content,omitempty"`
	Path      string                  `json:"path,omitempty"`
}

// OpenPreviewWindow asks the shell for a new review window over ids.
func OpenPreviewWindow(from WindowID, ids []domain.BookID) Message {
	return Message{Kind: KindOpenPreviewWindow, From: from, To: ShellWindow, BookIDs: cloneIDs(ids)}
}

// InitData hands the review window its ordered book list.
func InitData(to WindowID, ids []domain.BookID) Message {
	return Message{Kind: KindInitData, From: ShellWindow, To: to, BookIDs: cloneIDs(ids)}
}

// OpenSelectorWindow asks the shell for a modal selector scoped to the sender.
func OpenSelectorWindow(from WindowID, filter domain.SelectionFilter) Message {
	return Message{Kind: KindOpenSelectorWindow, From: from, To: ShellWindow, Filter: cloneFilter(filter)}
}

// FiltersData hands the selector window its filter.
func FiltersData(to WindowID, filter domain.SelectionFilter) Message {
	return Message{Kind: KindFiltersData, From: ShellWindow, To: to, Filter: cloneFilter(filter)}
}

// SelectionComplete carries the confirmed subset back to the shell.
func SelectionComplete(from WindowID, ids []domain.BookID) Message {
	return Message{Kind: KindSelectionComplete, From: from, To: ShellWindow, BookIDs: cloneIDs(ids)}
}

// UpdateBookIDs forwards a confirmed selection to the window that opened the selector.
func UpdateBookIDs(to WindowID, ids []domain.BookID) Message {
	return Message{Kind: KindUpdateBookIDs, From: ShellWindow, To: to, BookIDs: cloneIDs(ids)}
}

// SaveLogFile asks the shell to persist a processing log.
func SaveLogFile(from WindowID, filename, content string) Message {
	return Message{Kind: KindSaveLogFile, From: from, To: ShellWindow, Filename: filename, Content: content}
}

// LogFileSaved replies with the resolved path of a saved log.
func LogFileSaved(to WindowID, path string) Message {
	return Message{Kind: KindLogFileSaved, From: ShellWindow, To: to, Path: path}
}

func cloneIDs(ids []domain.BookID) []domain.BookID {
	if ids == nil {
		return []domain.BookID{}
	}
	return append([]domain.BookID(nil), ids...)
}

func cloneFilter(filter domain.SelectionFilter) *domain.SelectionFilter {
	filter.ParentOrgIDs = cloneIDs(filter.ParentOrgIDs)
	return &filter
}
