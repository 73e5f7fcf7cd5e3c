// Package service orchestrates ingestion: opening the source repositories,
// assembling the repo graph, enriching it and announcing the result.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/subete/internal/adapter/otel"
	"github.com/Strob0t/subete/internal/config"
	"github.com/Strob0t/subete/internal/domain"
	"github.com/Strob0t/subete/internal/domain/repo"
	"github.com/Strob0t/subete/internal/logger"
	"github.com/Strob0t/subete/internal/port/events"
	"github.com/Strob0t/subete/internal/port/fswalk"
	"github.com/Strob0t/subete/internal/port/metadata"
	"github.com/Strob0t/subete/internal/port/snapshot"
	"github.com/Strob0t/subete/internal/port/vcs"
)

// IngestResult is the outcome of one ingestion run.
type IngestResult struct {
	RunID           string
	Repo            *repo.Repo
	ArchiveRevision string
	DocsRevision    string
	Duration        time.Duration
	CompletedAt     time.Time
}

// Event converts the result into the event announced after ingestion.
func (r *IngestResult) Event() events.Ingested {
	s := r.Repo.Summarize()
	return events.Ingested{
		RunID:           r.RunID,
		ArchiveRevision: r.ArchiveRevision,
		DocsRevision:    r.DocsRevision,
		Languages:       s.Languages,
		Programs:        s.Programs,
		Projects:        s.ApprovedProjects,
		Tested:          s.Tested,
		Untestable:      s.Untestable,
		Enriched:        s.Enriched,
		DurationMillis:  r.Duration.Milliseconds(),
		CompletedAt:     r.CompletedAt,
	}
}

// Record converts the result into a storable snapshot.
func (r *IngestResult) Record() snapshot.Record {
	return snapshot.Record{
		RunID:           r.RunID,
		ArchiveRevision: r.ArchiveRevision,
		DocsRevision:    r.DocsRevision,
		CreatedAt:       r.CompletedAt,
		Graph:           r.Repo.Snapshot(),
	}
}

// IngestService builds a Repo from the configured sources.
type IngestService struct {
	opener    vcs.Opener
	walker    fswalk.Walker
	loader    metadata.Loader
	sources   config.Sources
	urls      domain.URLs
	enricher  *EnrichService
	publisher events.Publisher
	metrics   *otel.Metrics
}

// IngestDeps are the collaborators of an IngestService. Enricher, Publisher
// and Metrics are optional.
type IngestDeps struct {
	Opener    vcs.Opener
	Walker    fswalk.Walker
	Loader    metadata.Loader
	Enricher  *EnrichService
	Publisher events.Publisher
	Metrics   *otel.Metrics
}

// NewIngestService creates an IngestService.
func NewIngestService(sources config.Sources, urls domain.URLs, deps IngestDeps) *IngestService {
	pub := deps.Publisher
	if pub == nil {
		pub = events.Nop{}
	}
	return &IngestService{
		opener:    deps.Opener,
		walker:    deps.Walker,
		loader:    deps.Loader,
		sources:   sources,
		urls:      urls,
		enricher:  deps.Enricher,
		publisher: pub,
		metrics:   deps.Metrics,
	}
}

// Ingest opens both source trees, assembles and (optionally) enriches the
// graph, and releases the trees before returning. Failing to open either
// tree wraps domain.ErrSourceUnavailable and yields no result.
func (s *IngestService) Ingest(ctx context.Context) (res *IngestResult, err error) {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	ctx, span := otel.StartIngestSpan(ctx, runID, s.sources.Archive, s.sources.Docs)
	start := time.Now()
	defer func() {
		otel.EndSpan(span, err)
		if res != nil {
			s.metrics.RecordIngest(ctx, len(res.Repo.Languages()), res.Repo.TotalPrograms(), unresolvedCount(res.Repo), res.Duration, nil)
		} else {
			s.metrics.RecordIngest(ctx, 0, 0, 0, time.Since(start), err)
		}
	}()

	slog.InfoContext(ctx, "ingestion started", "archive", s.sources.Archive, "docs", s.sources.Docs)

	archive, docs, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer closeRepo(ctx, archive)
	defer closeRepo(ctx, docs)

	r, err := repo.Assemble(ctx, repo.Input{
		ArchiveRoot:    filepath.Join(archive.Root(), s.sources.ArchiveSubdir),
		DocsRoot:       filepath.Join(docs.Root(), s.sources.DocsSubdir),
		TestConfigPath: filepath.Join(archive.Root(), s.sources.TestConfig),
		Walker:         s.walker,
		Loader:         s.loader,
		URLs:           s.urls,
		Logger:         slog.Default().With("run_id", runID),
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	archiveRev, err := archive.Revision(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: archive revision: %w", err)
	}
	docsRev, err := docs.Revision(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: docs revision: %w", err)
	}

	if s.enricher != nil {
		if err := s.enricher.Enrich(ctx, r, archive, docs); err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}
	}

	res = &IngestResult{
		RunID:           runID,
		Repo:            r,
		ArchiveRevision: archiveRev,
		DocsRevision:    docsRev,
		Duration:        time.Since(start),
		CompletedAt:     time.Now().UTC(),
	}

	if err := s.publisher.Publish(ctx, res.Event()); err != nil {
		slog.WarnContext(ctx, "ingestion event not published", "error", err)
	}

	slog.InfoContext(ctx, "ingestion complete",
		"languages", len(r.Languages()),
		"programs", r.TotalPrograms(),
		"projects", r.TotalApprovedProjects(),
		"enriched", r.Enriched(),
		"duration", res.Duration.Round(time.Millisecond),
	)
	return res, nil
}

// open opens the archive and docs trees concurrently. If either fails the
// other is closed.
func (s *IngestService) open(ctx context.Context) (archive, docs vcs.Repository, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		archive, err = s.opener.Open(gctx, s.sources.Archive)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		docs, err = s.opener.Open(gctx, s.sources.Docs)
		if err != nil {
			return fmt.Errorf("open docs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if archive != nil {
			closeRepo(ctx, archive)
		}
		if docs != nil {
			closeRepo(ctx, docs)
		}
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		return nil, nil, fmt.Errorf("ingest: %w", err)
	}
	return archive, docs, nil
}

func closeRepo(ctx context.Context, r vcs.Repository) {
	if err := r.Close(); err != nil {
		slog.WarnContext(ctx, "failed to release source tree", "root", r.Root(), "error", err)
	}
}

func unresolvedCount(r *repo.Repo) int {
	n := 0
	for _, c := range r.Languages() {
		n += len(c.Unresolved())
	}
	return n
}
