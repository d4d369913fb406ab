// Package uploads keeps the original resume files of each session's latest
// batch on disk and exports the best of them as a zip archive.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for file names that would escape the batch
// directory.
var ErrInvalidName = errors.New("invalid upload name")

// Storage lays files out as <root>/<session>/<batch>/<uuid>_<basename>. The
// uuid prefix keeps same-named uploads of one batch apart.
type Storage struct {
	root string
}

// NewStorage creates root if needed.
func NewStorage(root string) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("upload directory is empty")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Storage{root: root}, nil
}

// Root returns the base directory.
func (s *Storage) Root() string { return s.root }

// Save writes r under the batch directory and returns the stored path. Each
// call gets its own file, even when name repeats within the batch.
func (s *Storage) Save(session, batch, name string, r io.Reader) (string, error) {
	dir, err := s.batchDir(session, batch)
	if err != nil {
		return "", err
	}

	base, err := cleanName(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create batch directory: %w", err)
	}

	path := filepath.Join(dir, uuid.NewString()+"_"+base)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", base, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write %s: %w", base, err)
	}

	return path, f.Close()
}

// Prune removes every batch of the session except keep.
func (s *Storage) Prune(session, keep string) error {
	if _, err := uuid.Parse(session); err != nil {
		return fmt.Errorf("%w: session %q", ErrInvalidName, session)
	}

	entries, err := os.ReadDir(filepath.Join(s.root, session))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("list session directory: %w", err)
	}

	for _, entry := range entries {
		if entry.Name() == keep {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, session, entry.Name())); err != nil {
			return fmt.Errorf("remove batch %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func (s *Storage) batchDir(session, batch string) (string, error) {
	if _, err := uuid.Parse(session); err != nil {
		return "", fmt.Errorf("%w: session %q", ErrInvalidName, session)
	}
	if _, err := uuid.Parse(batch); err != nil {
		return "", fmt.Errorf("%w: batch %q", ErrInvalidName, batch)
	}
	return filepath.Join(s.root, session, batch), nil
}

func cleanName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}
