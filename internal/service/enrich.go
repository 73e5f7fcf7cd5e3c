package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/subete/internal/adapter/otel"
	"github.com/Strob0t/subete/internal/domain/provenance"
	"github.com/Strob0t/subete/internal/domain/repo"
	"github.com/Strob0t/subete/internal/port/cache"
	"github.com/Strob0t/subete/internal/port/vcs"
)

// Required documentation files per entity kind. An entity is documented when
// at least one of its files exists.
var (
	projectDocFiles  = []string{"description.md", "requirements.md"}
	languageDocFiles = []string{"description.md"}
	programDocFiles  = []string{"how-to-implement-the-solution.md", "how-to-run-the-solution.md"}
)

// EnrichService attaches documentation and code provenance to an assembled
// repo by blaming files in the two source repositories.
type EnrichService struct {
	workers int
	cache   cache.Cache
	ttl     time.Duration
	metrics *otel.Metrics
}

// NewEnrichService creates an EnrichService. c may be nil to disable blame
// caching; metrics may be nil.
func NewEnrichService(workers int, c cache.Cache, ttl time.Duration, metrics *otel.Metrics) *EnrichService {
	if workers < 1 {
		workers = 1
	}
	return &EnrichService{workers: workers, cache: c, ttl: ttl, metrics: metrics}
}

// Enrich blames the documentation of every project, language and program
// plus every program's source file, then attaches the results to r.
// archive and docs must be the repositories r was assembled from.
func (s *EnrichService) Enrich(ctx context.Context, r *repo.Repo, archive, docs vcs.Repository) (err error) {
	archiveBlamer, err := s.blamer(ctx, archive)
	if err != nil {
		return err
	}
	docsBlamer, err := s.blamer(ctx, docs)
	if err != nil {
		return err
	}

	archivePrefix, err := filepath.Rel(archive.Root(), r.ArchiveRoot())
	if err != nil {
		return fmt.Errorf("enrich: archive root: %w", err)
	}
	docsPrefix, err := filepath.Rel(docs.Root(), r.DocsRoot())
	if err != nil {
		return fmt.Errorf("enrich: docs root: %w", err)
	}

	e := &enrichment{
		docsRoot:   r.DocsRoot(),
		docsPrefix: docsPrefix,
		docs:       docsBlamer,
		idx: repo.Index{
			Projects:  make(map[string]provenance.Provenance),
			Languages: make(map[string]provenance.Provenance),
			Programs:  make(map[repo.ProgramRef]repo.ProgramProvenance),
		},
	}

	entities := len(r.Projects()) + len(r.Languages()) + r.TotalPrograms()
	ctx, span := otel.StartEnrichSpan(ctx, entities)
	defer func() { otel.EndSpan(span, err) }()
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, p := range r.Projects() {
		key := p.Key()
		g.Go(func() error {
			prov, err := e.documentation(gctx, filepath.Join("projects", key), projectDocFiles)
			if err != nil {
				return fmt.Errorf("project %s: %w", key, err)
			}
			e.mu.Lock()
			e.idx.Projects[key] = prov
			e.mu.Unlock()
			return nil
		})
	}

	for _, c := range r.Languages() {
		langKey := c.Key()
		g.Go(func() error {
			prov, err := e.documentation(gctx, filepath.Join("languages", langKey), languageDocFiles)
			if err != nil {
				return fmt.Errorf("language %s: %w", langKey, err)
			}
			e.mu.Lock()
			e.idx.Languages[langKey] = prov
			e.mu.Unlock()
			return nil
		})

		for _, p := range c.Programs() {
			ref := repo.ProgramRef{Language: langKey, Project: p.ProjectKey()}
			path := p.Path()
			g.Go(func() error {
				codePath, err := filepath.Rel(r.ArchiveRoot(), path)
				if err != nil {
					return fmt.Errorf("program path %s: %w", path, err)
				}
				codePath = filepath.Join(archivePrefix, codePath)
				b, err := archiveBlamer.Blame(gctx, codePath)
				if err != nil {
					return fmt.Errorf("program %s/%s code: %w", ref.Language, ref.Project, err)
				}
				code := provenance.Aggregate([]string{filepath.ToSlash(codePath)}, []provenance.Blame{b})

				docs, err := e.documentation(gctx, filepath.Join("programs", ref.Project, ref.Language), programDocFiles)
				if err != nil {
					return fmt.Errorf("program %s/%s docs: %w", ref.Language, ref.Project, err)
				}
				e.mu.Lock()
				e.idx.Programs[ref] = repo.ProgramProvenance{Code: code, Docs: docs}
				e.mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("enrich: %w", err)
	}
	if err := r.Attach(e.idx); err != nil {
		return fmt.Errorf("enrich: %w", err)
	}

	slog.InfoContext(ctx, "enrichment complete",
		"projects", len(e.idx.Projects),
		"languages", len(e.idx.Languages),
		"programs", len(e.idx.Programs),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func (s *EnrichService) blamer(ctx context.Context, rp vcs.Repository) (*cachedBlamer, error) {
	rev, err := rp.Revision(ctx)
	if err != nil {
		return nil, fmt.Errorf("enrich: revision of %s: %w", rp.Root(), err)
	}
	return &cachedBlamer{repo: rp, revision: rev, cache: s.cache, ttl: s.ttl, metrics: s.metrics}, nil
}

type enrichment struct {
	docsRoot   string
	docsPrefix string
	docs       *cachedBlamer

	mu  sync.Mutex
	idx repo.Index
}

// documentation blames the required files present in dir (relative to the
// docs root). No present file yields a zero Provenance.
func (e *enrichment) documentation(ctx context.Context, dir string, required []string) (provenance.Provenance, error) {
	var (
		files  []string
		blames []provenance.Blame
	)
	for _, name := range required {
		rel := filepath.Join(dir, name)
		info, err := os.Stat(filepath.Join(e.docsRoot, rel))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return provenance.Provenance{}, fmt.Errorf("stat %s: %w", rel, err)
		}
		if info.IsDir() {
			continue
		}
		b, err := e.docs.Blame(ctx, filepath.Join(e.docsPrefix, rel))
		if err != nil {
			return provenance.Provenance{}, err
		}
		files = append(files, filepath.ToSlash(rel))
		blames = append(blames, b)
	}
	return provenance.Aggregate(files, blames), nil
}
