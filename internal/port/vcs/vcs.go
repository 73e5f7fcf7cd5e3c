// Package vcs defines the version-control port used to open source trees and
// read per-file authorship.
package vcs

import (
	"context"

	"github.com/Strob0t/subete/internal/domain/provenance"
)

// Repository is an opened working tree.
type Repository interface {
	// Root returns the absolute path of the working tree.
	Root() string

	// Revision returns the commit the working tree is checked out at.
	Revision(ctx context.Context) (string, error)

	// Blame returns the authors and line timestamps of relPath at the current
	// revision. A file unknown to version control yields an empty Blame.
	Blame(ctx context.Context, relPath string) (provenance.Blame, error)

	// Close releases the repository. Temporary clones are removed.
	Close() error
}

// Opener opens repositories from a location (local path or clone URL).
type Opener interface {
	// Name returns the unique identifier for this opener (e.g. "local").
	Name() string

	// Open opens location. Failures wrap domain.ErrSourceUnavailable.
	Open(ctx context.Context, location string) (Repository, error)
}
