// Package extract pulls plain text out of uploaded resumes and job
// descriptions.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file types without an extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrInvalidDocument is returned when a file cannot be parsed as its type.
	ErrInvalidDocument = errors.New("invalid document")
)

// maxDocumentSize caps how much of one upload is read.
const maxDocumentSize = 32 << 20

// Extractor dispatches on the file extension.
type Extractor struct {
	runner CommandRunner
}

// New returns an Extractor that runs pdftotext through the given runner, or
// through os/exec when runner is nil.
func New(runner CommandRunner) *Extractor {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Extractor{runner: runner}
}

// Supported reports whether name has an extension the Extractor handles.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx", ".html", ".htm", ".txt", ".md":
		return true
	default:
		return false
	}
}

// Extract returns the raw text of the document.
func (e *Extractor) Extract(ctx context.Context, name string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !Supported(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}

	switch ext {
	case ".pdf":
		return e.pdf(ctx, data)
	case ".docx":
		return docx(data)
	case ".html", ".htm":
		return html(data)
	default:
		return string(data), nil
	}
}
