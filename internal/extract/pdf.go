package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, ErrPDFToolNotFound
	}
	return exec.CommandContext(ctx, path, args...).Output()
}

// InstallInstructions explains how to get pdftotext.
func InstallInstructions() string {
	return "PDF extraction needs pdftotext from poppler: brew install poppler / apt install poppler-utils"
}

func (e *Extractor) pdf(ctx context.Context, data []byte) (string, error) {
	if !strings.HasPrefix(string(data[:min(len(data), 5)]), "%PDF-") {
		return "", fmt.Errorf("%w: missing pdf header", ErrInvalidDocument)
	}

	tmp, err := os.CreateTemp("", "resume-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return "", fmt.Errorf("%w (%s)", err, InstallInstructions())
		}
		return "", fmt.Errorf("pdftotext: %w", err)
	}

	return string(out), nil
}
