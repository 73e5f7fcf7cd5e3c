package gitlocal

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/subete/internal/domain/provenance"
	"github.com/Strob0t/subete/internal/git"
)

// Repository is a git working tree on the local filesystem.
type Repository struct {
	root      string
	pool      *git.Pool
	tracked   bool
	temporary bool

	closeOnce sync.Once
	closeErr  error
}

// Root returns the absolute path of the working tree.
func (r *Repository) Root() string { return r.root }

// Revision returns the HEAD commit hash, or "" for untracked directories.
func (r *Repository) Revision(ctx context.Context) (string, error) {
	if !r.tracked {
		return "", nil
	}
	out, err := r.pool.Exec(ctx, r.root, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("gitlocal: revision: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Blame runs git blame on relPath. Files unknown to git yield an empty Blame.
func (r *Repository) Blame(ctx context.Context, relPath string) (provenance.Blame, error) {
	if !r.tracked {
		return provenance.Blame{}, nil
	}
	rel := filepath.ToSlash(relPath)
	out, err := r.pool.Exec(ctx, r.root, "blame", "--porcelain", "--", rel)
	if err != nil {
		if _, lsErr := r.pool.Exec(ctx, r.root, "ls-files", "--error-unmatch", "--", rel); lsErr != nil && ctx.Err() == nil {
			return provenance.Blame{}, nil
		}
		return provenance.Blame{}, fmt.Errorf("gitlocal: blame %s: %w", rel, err)
	}
	return parsePorcelain(out)
}

// Close removes temporary clones. It is safe to call more than once.
func (r *Repository) Close() error {
	r.closeOnce.Do(func() {
		if r.temporary {
			r.closeErr = os.RemoveAll(r.root)
		}
	})
	return r.closeErr
}

type commitInfo struct {
	author      string
	time        time.Time
	uncommitted bool
}

// parsePorcelain reads `git blame --porcelain` output. Commit metadata is
// printed only the first time a commit appears; later line groups refer to
// it by hash.
func parsePorcelain(out string) (provenance.Blame, error) {
	commits := make(map[string]*commitInfo)
	seen := make(map[string]bool)
	var (
		b       provenance.Blame
		current *commitInfo
	)

	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	expectHeader := true
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "\t") {
			if current != nil && !current.uncommitted {
				b.Timestamps = append(b.Timestamps, current.time)
				if current.author != "" && !seen[current.author] {
					seen[current.author] = true
					b.Authors = append(b.Authors, current.author)
				}
			}
			expectHeader = true
			continue
		}
		if expectHeader {
			fields := strings.Fields(line)
			if len(fields) < 3 || len(fields[0]) < 40 {
				return provenance.Blame{}, fmt.Errorf("gitlocal: malformed blame header %q", line)
			}
			sha := fields[0]
			if commits[sha] == nil {
				commits[sha] = &commitInfo{uncommitted: strings.Trim(sha, "0") == ""}
			}
			current = commits[sha]
			expectHeader = false
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		switch key {
		case "author":
			current.author = value
		case "author-time":
			secs, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return provenance.Blame{}, fmt.Errorf("gitlocal: bad author-time %q: %w", value, err)
			}
			current.time = time.Unix(secs, 0).UTC()
		}
	}
	if err := sc.Err(); err != nil {
		return provenance.Blame{}, fmt.Errorf("gitlocal: read blame: %w", err)
	}
	return b, nil
}
