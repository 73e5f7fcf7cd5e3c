// Package fswalk defines the port for enumerating directory trees.
package fswalk

// VisitFunc is called once per directory with the names (not paths) of its
// non-hidden subdirectories and its regular files, both sorted.
type VisitFunc func(dir string, subdirs, files []string) error

// Walker enumerates directories below a root.
type Walker interface {
	// Walk visits root and every non-hidden directory below it, top-down.
	Walk(root string, fn VisitFunc) error
	// ListDirs returns the sorted names of the immediate non-hidden
	// subdirectories of path.
	ListDirs(path string) ([]string, error)
}
