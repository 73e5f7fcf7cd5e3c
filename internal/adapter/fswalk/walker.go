// Package fswalk implements the fswalk.Walker port on the local filesystem.
package fswalk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	port "github.com/Strob0t/subete/internal/port/fswalk"
)

// Walker walks the local filesystem. Hidden entries (leading dot) are
// skipped; symlinks are not followed.
type Walker struct{}

// New returns a Walker.
func New() *Walker { return &Walker{} }

// Walk visits root and every non-hidden directory below it, top-down.
func (w *Walker) Walk(root string, fn port.VisitFunc) error {
	subdirs, files, err := readDir(root)
	if err != nil {
		return err
	}
	if err := fn(root, subdirs, files); err != nil {
		return err
	}
	for _, d := range subdirs {
		if err := w.Walk(filepath.Join(root, d), fn); err != nil {
			return err
		}
	}
	return nil
}

// ListDirs returns the sorted names of the immediate subdirectories of path.
func (w *Walker) ListDirs(path string) ([]string, error) {
	dirs, _, err := readDir(path)
	return dirs, err
}

func readDir(path string) (dirs, files []string, err error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, nil, fmt.Errorf("fswalk: read %s: %w", path, err)
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		switch {
		case e.IsDir():
			dirs = append(dirs, name)
		case e.Type().IsRegular():
			files = append(files, name)
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}
