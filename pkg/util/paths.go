package util

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideDir is returned for data file names that leave their directory.
var ErrOutsideDir = errors.New("attempted loading of data file outside test directory")

// SafeJoin joins name onto dir and returns the cleaned result, refusing any
// name whose resolved path would leave dir.
func SafeJoin(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty data file name")
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return "", fmt.Errorf("resolving data file %s: %w", name, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDir, name)
	}
	return path, nil
}
