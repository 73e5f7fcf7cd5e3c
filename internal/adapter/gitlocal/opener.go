// Package gitlocal implements the vcs port using local git CLI commands.
package gitlocal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Strob0t/subete/internal/domain"
	"github.com/Strob0t/subete/internal/git"
	"github.com/Strob0t/subete/internal/port/vcs"
)

const openerName = "local"

// Opener opens local working trees and clones remote repositories into
// temporary directories, running every git command through pool.
type Opener struct {
	pool     *git.Pool
	cloneDir string
}

// NewOpener creates an Opener. cloneDir is the parent directory for
// temporary clones; empty means os.TempDir().
func NewOpener(pool *git.Pool, cloneDir string) *Opener {
	return &Opener{pool: pool, cloneDir: cloneDir}
}

// Name returns "local".
func (o *Opener) Name() string { return openerName }

// Open opens location. Existing directories are used in place; anything that
// looks like a remote URL is cloned. A directory outside any git work tree
// opens untracked: every blame is empty.
func (o *Opener) Open(ctx context.Context, location string) (vcs.Repository, error) {
	if info, err := os.Stat(location); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("gitlocal: %s is not a directory: %w", location, domain.ErrSourceUnavailable)
		}
		r, err := o.openDir(ctx, location)
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	if !isRemote(location) {
		return nil, fmt.Errorf("gitlocal: %s does not exist: %w", location, domain.ErrSourceUnavailable)
	}
	r, err := o.clone(ctx, location)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (o *Opener) openDir(ctx context.Context, dir string) (*Repository, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("gitlocal: resolve path: %w: %w", domain.ErrSourceUnavailable, err)
	}

	r := &Repository{root: abs, pool: o.pool, tracked: true}
	if _, err := o.pool.Exec(ctx, abs, "rev-parse", "--is-inside-work-tree"); err != nil {
		var gitErr *git.Error
		if !errors.As(err, &gitErr) {
			return nil, fmt.Errorf("gitlocal: open %s: %w: %w", abs, domain.ErrSourceUnavailable, err)
		}
		slog.Warn("directory is not a git work tree, authorship will be empty", "path", abs)
		r.tracked = false
	}
	return r, nil
}

func (o *Opener) clone(ctx context.Context, url string) (*Repository, error) {
	dir, err := os.MkdirTemp(o.cloneDir, "subete-clone-*")
	if err != nil {
		return nil, fmt.Errorf("gitlocal: create clone dir: %w: %w", domain.ErrSourceUnavailable, err)
	}

	slog.Info("cloning repository", "url", url, "path", dir)
	if _, err := o.pool.Exec(ctx, "", "clone", "--quiet", url, dir); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("gitlocal: clone %s: %w: %w", url, domain.ErrSourceUnavailable, err)
	}
	return &Repository{root: dir, pool: o.pool, tracked: true, temporary: true}, nil
}

func isRemote(location string) bool {
	return strings.Contains(location, "://") ||
		strings.HasPrefix(location, "git@") ||
		strings.HasSuffix(location, ".git")
}
