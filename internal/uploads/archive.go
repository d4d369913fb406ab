package uploads

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spigell/resume-matcher/internal/results"
)

// DefaultArchiveName is used when the caller gives no name.
const DefaultArchiveName = "top_resumes.zip"

// ArchiveName trims name, falls back to the default and appends ".zip" when
// missing.
func ArchiveName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultArchiveName
	}
	if !strings.HasSuffix(name, ".zip") {
		name += ".zip"
	}
	return name
}

// Archive writes a deflate zip of the first n results' stored files to w.
// Results without a stored file, or whose file is gone, are skipped. Entries
// are named after the submitted filename; a repeated name gets a " (2)",
// " (3)" suffix before its extension. It returns how many files were added.
func Archive(w io.Writer, set results.Set, n int) (int, error) {
	zw := zip.NewWriter(w)

	added := 0
	seen := make(map[string]struct{})
	for _, res := range set.Top(n) {
		if res.Path == "" {
			continue
		}

		name := entryName(res.Filename, seen)
		ok, err := addFile(zw, res.Path, name)
		if err != nil {
			zw.Close()
			return added, err
		}
		if ok {
			seen[name] = struct{}{}
			added++
		}
	}

	if err := zw.Close(); err != nil {
		return added, fmt.Errorf("finish archive: %w", err)
	}
	return added, nil
}

func entryName(filename string, seen map[string]struct{}) string {
	if _, dup := seen[filename]; !dup {
		return filename
	}

	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if _, dup := seen[name]; !dup {
			return name
		}
	}
}

func addFile(zw *zip.Writer, path, name string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return false, fmt.Errorf("zip header %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return false, fmt.Errorf("zip entry %s: %w", name, err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return false, fmt.Errorf("zip copy %s: %w", name, err)
	}

	return true, nil
}
