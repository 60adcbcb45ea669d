// Package staging keeps the raw upload payloads on disk, keyed by original
// filename. Clearing the knowledge base purges this directory as well.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
)

type Dir struct {
	path string
}

func New(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Save writes the payload under the original filename, replacing any
// earlier upload with the same name.
func (d *Dir) Save(filename string, data []byte) (string, error) {
	dest := filepath.Join(d.path, filepath.Base(filename))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}
	return dest, nil
}

// Purge removes all staged files and reports how many were deleted.
func (d *Dir) Purge() (int, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read staging directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove staged file: %w", err)
		}
		removed++
	}
	return removed, nil
}
