package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer stores processing logs under one private directory.
type Writer struct {
	dir       string
	mkdirAll  func(string, os.FileMode) error
	writeFile func(string, []byte, os.FileMode) error
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:       dir,
		mkdirAll:  os.MkdirAll,
		writeFile: os.WriteFile,
	}
}

// NewWriterForTests creates a writer with injectable filesystem calls.
func NewWriterForTests(dir string, mkdirAll func(string, os.FileMode) error, writeFile func(string, []byte, os.FileMode) error) *Writer {
	return &Writer{dir: dir, mkdirAll: mkdirAll, writeFile: writeFile}
}

// Dir returns the directory logs are written to.
func (w *Writer) Dir() string {
	return w.dir
}

// Save ensures the directory exists, writes content to filename, and returns
// the resolved path. Filenames may not escape the directory.
func (w *Writer) Save(filename, content string) (string, error) {
	name := strings.TrimSpace(filename)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid log filename %q", filename)
	}
	if strings.TrimSpace(w.dir) == "" {
		return "", fmt.Errorf("log directory is empty")
	}

	if err := w.mkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(w.dir, name)
	if err := w.writeFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write log file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}
